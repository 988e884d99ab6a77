package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Honback/claude-code-api/internal/services"
)

// SettingsHandler handles application settings
type SettingsHandler struct {
	settings *services.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get handles GET /api/settings
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	settings, err := h.settings.Get(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(settings)
}

// Update handles PUT /api/settings
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	var req services.Settings
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.settings.Update(c.Context(), req); err != nil {
		return err
	}

	return c.JSON(req)
}
