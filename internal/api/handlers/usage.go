package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Honback/claude-code-api/internal/api/middleware"
	"github.com/Honback/claude-code-api/internal/services"
)

// UsageHandler serves usage statistics
type UsageHandler struct {
	usage *services.UsageService
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(usage *services.UsageService) *UsageHandler {
	return &UsageHandler{usage: usage}
}

// Summary handles GET /api/usage/summary?days=N
func (h *UsageHandler) Summary(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)

	summary, err := h.usage.UserSummary(c.Context(), userID, c.QueryInt("days", 30))
	if err != nil {
		return err
	}

	return c.JSON(summary)
}

// GlobalSummary handles GET /api/admin/usage?days=N
func (h *UsageHandler) GlobalSummary(c *fiber.Ctx) error {
	summary, err := h.usage.GlobalSummary(c.Context(), c.QueryInt("days", 30))
	if err != nil {
		return err
	}

	return c.JSON(summary)
}

// ByModel handles GET /api/admin/usage/models?days=N
func (h *UsageHandler) ByModel(c *fiber.Ctx) error {
	usage, err := h.usage.ByModel(c.Context(), c.QueryInt("days", 30))
	if err != nil {
		return err
	}

	return c.JSON(usage)
}
