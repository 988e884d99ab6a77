package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Honback/claude-code-api/internal/auth"
)

const userIDKey = "user_id"

// AuthRequired resolves a bearer JWT or an X-API-Key header to a user id
// and stores it in the request locals. Requests with neither fail with
// 401.
func AuthRequired(authService *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey := c.Get("X-API-Key"); apiKey != "" {
			userID, err := authService.ValidateAPIKey(c.Context(), apiKey)
			if err != nil {
				return unauthorized(c, "Invalid API key")
			}
			c.Locals(userIDKey, userID)
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthorized(c, "Missing authentication")
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := authService.ValidateToken(token)
		if err != nil {
			return unauthorized(c, "Invalid token")
		}

		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// UserID returns the authenticated user id set by AuthRequired.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, ok := c.Locals(userIDKey).(uuid.UUID)
	return userID, ok
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": message,
	})
}
