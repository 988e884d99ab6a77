package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// selectableModels are the model names the chat UI can pick from.
var selectableModels = []fiber.Map{
	{"id": "claude-haiku-4-5-20251001", "name": "Claude Haiku 4.5"},
	{"id": "claude-sonnet-4-5-20250929", "name": "Claude Sonnet 4.5"},
	{"id": "claude-opus-4-1-20250805", "name": "Claude Opus 4.1"},
}

// GetModels handles GET /api/models
func GetModels(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"models": selectableModels})
}
