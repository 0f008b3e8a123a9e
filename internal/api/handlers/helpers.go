package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/service"
	"github.com/Eman-gul457/Content-Repurposing-Agent/pkg/utils"
)

func GetUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}

// respondError translates service sentinels into status codes. Unknown
// errors stay opaque to the client.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "something went wrong"

	switch {
	case errors.Is(err, service.ErrPostNotFound):
		status, message = fiber.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrIllegalTransition),
		errors.Is(err, service.ErrAccountNotConnected),
		errors.Is(err, service.ErrNotSupported),
		errors.Is(err, service.ErrMediaTypeNotAllowed),
		errors.Is(err, service.ErrAttachmentLimit):
		status, message = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrMediaTooLarge):
		status, message = fiber.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, service.ErrManualOnly):
		status, message = fiber.StatusConflict, err.Error()
	case errors.Is(err, utils.ErrStateExpired),
		errors.Is(err, utils.ErrStateInvalid),
		errors.Is(err, utils.ErrApprovalTokenInvalid),
		errors.Is(err, service.ErrStateNotFound),
		errors.Is(err, service.ErrUserMismatch):
		status, message = fiber.StatusBadRequest, err.Error()
	}

	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}
