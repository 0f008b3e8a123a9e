package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/service"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/transfer"
)

type UploadHandler struct {
	media *service.MediaService
}

func NewUploadHandler(media *service.MediaService) *UploadHandler {
	return &UploadHandler{media: media}
}

func (h *UploadHandler) UploadMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.UploadMediaRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.PostID == 0 || req.FileName == "" || req.ContentBase64 == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "post_id, file_name and content_base64 are required",
		})
	}

	asset, err := h.media.Upload(c.Context(), userID, &req)
	if err != nil {
		slog.Info(err.Error())
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(asset)
}

func (h *UploadHandler) ListPostMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)
	id, err := postID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	assets, err := h.media.ListPostMedia(c.Context(), userID, id)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(assets)
}
