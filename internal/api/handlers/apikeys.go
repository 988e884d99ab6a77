package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Honback/claude-code-api/internal/api/middleware"
	"github.com/Honback/claude-code-api/internal/auth"
)

// APIKeyHandler handles API key management
type APIKeyHandler struct {
	auth *auth.Service
}

// NewAPIKeyHandler creates a new API key handler
func NewAPIKeyHandler(authService *auth.Service) *APIKeyHandler {
	return &APIKeyHandler{auth: authService}
}

// Create handles POST /api/keys. The plaintext key appears in this
// response and nowhere else.
func (h *APIKeyHandler) Create(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)

	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Name == "" {
		return badRequest(c, "Name is required")
	}

	key, plaintext, err := h.auth.CreateAPIKey(c.Context(), userID, req.Name)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"key":    key,
		"apiKey": plaintext,
	})
}

// List handles GET /api/keys
func (h *APIKeyHandler) List(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)

	keys, err := h.auth.ListAPIKeys(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(keys)
}

// Revoke handles DELETE /api/keys/:id
func (h *APIKeyHandler) Revoke(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)

	keyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid key id")
	}

	if err := h.auth.RevokeAPIKey(c.Context(), userID, keyID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
