package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Honback/claude-code-api/internal/api/middleware"
	"github.com/Honback/claude-code-api/internal/services"
)

// ConversationHandler handles conversation CRUD
type ConversationHandler struct {
	conversations *services.ConversationService
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(conversations *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// List handles GET /api/conversations
func (h *ConversationHandler) List(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)

	items, err := h.conversations.List(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(items)
}

// Get handles GET /api/conversations/:id
func (h *ConversationHandler) Get(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)

	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid conversation id")
	}

	detail, err := h.conversations.Get(c.Context(), conversationID, userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(detail)
}

// Create handles POST /api/conversations
func (h *ConversationHandler) Create(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)

	var req struct {
		Title string `json:"title"`
		Model string `json:"model"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	conversation, err := h.conversations.Create(c.Context(), userID, req.Title, req.Model)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(conversation)
}

// Update handles PUT /api/conversations/:id
func (h *ConversationHandler) Update(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)

	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid conversation id")
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	conversation, err := h.conversations.Rename(c.Context(), conversationID, userID, req.Title)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(conversation)
}

// Delete handles DELETE /api/conversations/:id
func (h *ConversationHandler) Delete(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)

	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid conversation id")
	}

	if err := h.conversations.Delete(c.Context(), conversationID, userID); err != nil {
		return serviceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}

func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
	default:
		return err
	}
}
