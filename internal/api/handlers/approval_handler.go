package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/service"
)

// ApprovalHandler serves the links sent to reviewers over WhatsApp. No
// session is required; the signed token carries everything.
type ApprovalHandler struct {
	posts *service.PostService
}

func NewApprovalHandler(posts *service.PostService) *ApprovalHandler {
	return &ApprovalHandler{posts: posts}
}

func (h *ApprovalHandler) Resolve(c *fiber.Ctx) error {
	action := c.Params("action")
	token := c.Query("token")
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "token is required",
		})
	}

	post, err := h.posts.ResolveApproval(c.Context(), token, action)
	if err != nil {
		slog.Info(err.Error())
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"post_id": post.ID,
		"status":  post.Status,
	})
}
