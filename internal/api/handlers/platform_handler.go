package handlers

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/gofiber/fiber/v2"

	cfg "github.com/Eman-gul457/Content-Repurposing-Agent/configs"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/service"
)

type PlatformHandler struct {
	ps  *service.PlatformService
	cfg cfg.Config
}

func NewPlatformHandler(ps *service.PlatformService, c cfg.Config) *PlatformHandler {
	return &PlatformHandler{ps: ps, cfg: c}
}

func (h *PlatformHandler) Connect(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")

	authURL, err := h.ps.GetAuthURL(c.Context(), userID, platform)
	if err != nil {
		slog.Info(err.Error())
		return respondError(c, err)
	}

	return c.Redirect(authURL, fiber.StatusTemporaryRedirect)
}

// Callback is hit by the provider, not our frontend, so errors redirect
// back to the dashboard with an error query instead of returning JSON.
func (h *PlatformHandler) Callback(c *fiber.Ctx) error {
	platform := c.Params("platform")
	code := c.Query("code")
	state := c.Query("state")

	if providerErr := c.Query("error"); providerErr != "" {
		return h.redirectWithError(c, providerErr)
	}

	_, err := h.ps.HandleCallback(c.Context(), platform, code, state)
	if err != nil {
		slog.Info(err.Error())
		return h.redirectWithError(c, err.Error())
	}

	redirectURL := fmt.Sprintf("%s/dashboard/accounts", h.cfg.FrontendURL)
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) redirectWithError(c *fiber.Ctx, message string) error {
	redirectURL := fmt.Sprintf("%s/dashboard/accounts?error=%s", h.cfg.FrontendURL, url.QueryEscape(message))
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) ListAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accounts, err := h.ps.ListAccounts(c.Context(), userID)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch social accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(accounts)
}
