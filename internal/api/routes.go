package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/Honback/claude-code-api/internal/api/handlers"
	"github.com/Honback/claude-code-api/internal/api/middleware"
	"github.com/Honback/claude-code-api/internal/auth"
	"github.com/Honback/claude-code-api/internal/services"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, svc *services.Services, authService *auth.Service) {
	chatHandler := handlers.NewChatHandler(svc.Chat)
	conversationHandler := handlers.NewConversationHandler(svc.Conversations)
	authHandler := handlers.NewAuthHandler(authService)
	apiKeyHandler := handlers.NewAPIKeyHandler(authService)
	settingsHandler := handlers.NewSettingsHandler(svc.Settings)
	usageHandler := handlers.NewUsageHandler(svc.Usage)

	api := app.Group("/api", middleware.DefaultRateLimit())

	// Public endpoints
	authGroup := api.Group("/auth", middleware.AuthRateLimit())
	authGroup.Post("/signup", authHandler.Signup)
	authGroup.Post("/login", authHandler.Login)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "claude-platform",
		})
	})

	// Authenticated endpoints
	authed := api.Group("", middleware.AuthRequired(authService))

	authed.Post("/chat/completions", middleware.ChatRateLimit(), chatHandler.StreamChat)

	authed.Get("/conversations", conversationHandler.List)
	authed.Post("/conversations", conversationHandler.Create)
	authed.Get("/conversations/:id", conversationHandler.Get)
	authed.Put("/conversations/:id", conversationHandler.Update)
	authed.Delete("/conversations/:id", conversationHandler.Delete)

	authed.Post("/keys", apiKeyHandler.Create)
	authed.Get("/keys", apiKeyHandler.List)
	authed.Delete("/keys/:id", apiKeyHandler.Revoke)

	authed.Get("/settings", settingsHandler.Get)
	authed.Put("/settings", settingsHandler.Update)

	authed.Get("/usage/summary", usageHandler.Summary)
	authed.Get("/admin/usage", usageHandler.GlobalSummary)
	authed.Get("/admin/usage/models", usageHandler.ByModel)

	authed.Get("/models", handlers.GetModels)

	// WebSocket chat stream. The upgrade handler copies the resolved
	// user id into connection locals for the stream handler.
	authed.Use("/chat/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			userID, _ := middleware.UserID(c)
			c.Locals("user_id", userID)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	authed.Get("/chat/ws", websocket.New(chatHandler.StreamChatWS))
}
