package handlers

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/service"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/transfer"
)

type PostHandler struct {
	posts      *service.PostService
	generation *service.GenerationService
}

func NewPostHandler(posts *service.PostService, generation *service.GenerationService) *PostHandler {
	return &PostHandler{posts: posts, generation: generation}
}

func postID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

func (h *PostHandler) Generate(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	drafts, err := h.generation.GenerateAll(c.Context(), userID, req.Content)
	if err != nil {
		slog.Info(err.Error())
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(drafts)
}

func (h *PostHandler) List(c *fiber.Ctx) error {
	userID := GetUserID(c)

	posts, err := h.posts.ListPosts(c.Context(), userID)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) Get(c *fiber.Ctx) error {
	userID := GetUserID(c)
	id, err := postID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	post, err := h.posts.GetPost(c.Context(), userID, id)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) UpdateText(c *fiber.Ctx) error {
	userID := GetUserID(c)
	id, err := postID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	var req transfer.UpdatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	post, err := h.posts.UpdateEditedText(c.Context(), userID, id, req.EditedText)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) UpdateStatus(c *fiber.Ctx) error {
	userID := GetUserID(c)
	id, err := postID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	var req transfer.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	post, err := h.posts.UpdateStatus(c.Context(), userID, id, req.Status)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) Schedule(c *fiber.Ctx) error {
	userID := GetUserID(c)
	id, err := postID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	var req transfer.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.ScheduledAt.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "scheduled_at is required",
		})
	}

	post, err := h.posts.Schedule(c.Context(), userID, id, req.ScheduledAt)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) Publish(c *fiber.Ctx) error {
	userID := GetUserID(c)
	id, err := postID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	var req transfer.PublishNowRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if !req.Confirm {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "publish requires confirm=true",
		})
	}

	result, err := h.posts.Publish(c.Context(), userID, id)
	if err != nil {
		slog.Info(err.Error())
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *PostHandler) ManualPublish(c *fiber.Ctx) error {
	userID := GetUserID(c)
	id, err := postID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	result, err := h.posts.ManualPublish(c.Context(), userID, id)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *PostHandler) GetPublishJob(c *fiber.Ctx) error {
	userID := GetUserID(c)
	id, err := postID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	job, err := h.posts.GetPublishJob(c.Context(), userID, id)
	if err != nil {
		return respondError(c, err)
	}
	if job == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no publish job for this post",
		})
	}

	return c.Status(fiber.StatusOK).JSON(job)
}
