package handlers

import (
	"bufio"
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/Honback/claude-code-api/internal/api/middleware"
	"github.com/Honback/claude-code-api/internal/services"
)

// ChatHandler handles chat streaming requests
type ChatHandler struct {
	chat *services.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// StreamChat handles POST /api/chat/completions as a server-sent event
// stream. The first frame always carries the conversation id so callers
// that started without one learn which conversation was created.
func (h *ChatHandler) StreamChat(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Not authenticated",
		})
	}

	var req services.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message is required",
		})
	}

	stream, err := h.chat.StreamChat(c.Context(), req, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		for payload := range stream {
			fmt.Fprintf(w, "data: %s\n\n", payload)
			w.Flush()
		}
	})

	return nil
}

// StreamChatWS handles the WebSocket variant of the chat stream. One
// request message in, a sequence of payload frames out.
func (h *ChatHandler) StreamChatWS(c *websocket.Conn) {
	defer c.Close()

	userID, ok := c.Locals("user_id").(uuid.UUID)
	if !ok {
		c.WriteJSON(fiber.Map{"error": "Not authenticated"})
		return
	}

	var req services.ChatRequest
	if err := c.ReadJSON(&req); err != nil {
		c.WriteJSON(fiber.Map{"error": "Invalid request"})
		return
	}
	if req.Message == "" {
		c.WriteJSON(fiber.Map{"error": "Message is required"})
		return
	}

	stream, err := h.chat.StreamChat(context.Background(), req, userID)
	if err != nil {
		c.WriteJSON(fiber.Map{"error": err.Error()})
		return
	}

	for payload := range stream {
		if err := c.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
			// Client went away; drain so the stream goroutine finishes
			// its post-completion work.
			for range stream {
			}
			return
		}
	}
}
