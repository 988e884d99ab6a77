package main

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/Honback/claude-code-api/internal/api"
	"github.com/Honback/claude-code-api/internal/auth"
	"github.com/Honback/claude-code-api/internal/claude"
	"github.com/Honback/claude-code-api/internal/config"
	"github.com/Honback/claude-code-api/internal/database"
	"github.com/Honback/claude-code-api/internal/repository/postgres"
	"github.com/Honback/claude-code-api/internal/services"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	app := fiber.New(fiber.Config{
		AppName:      "Claude Platform Backend",
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-API-Key",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	conversationRepo := postgres.NewConversationRepository(db.DB)
	messageRepo := postgres.NewMessageRepository(db.DB)
	summaryRepo := postgres.NewSummaryRepository(db.DB)
	usageLogRepo := postgres.NewUsageLogRepository(db.DB)
	userRepo := postgres.NewUserRepository(db.DB)
	apiKeyRepo := postgres.NewAPIKeyRepository(db.DB)
	settingRepo := postgres.NewSettingRepository(db.DB)

	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "change-me-in-production"
		log.Warn("using default JWT secret; set JWT_SECRET in production")
	}
	authService := auth.NewService(userRepo, apiKeyRepo, auth.NewJWTService(jwtSecret, "claude-platform"), log)

	defaultUserID, bootstrapKey, err := authService.EnsureDefaultUser(context.Background())
	if err != nil {
		log.WithError(err).Fatal("failed to ensure default user")
	}
	if bootstrapKey != "" {
		// Printed once, on the run that created the user. There is no
		// other way to retrieve it.
		log.WithFields(logrus.Fields{
			"user_id": defaultUserID,
			"api_key": bootstrapKey,
		}).Warn("issued bootstrap API key; store it now")
	}

	upstream := claude.NewClient(cfg.Upstream.BaseURL, log)

	svc := services.NewServices(cfg, upstream,
		conversationRepo, messageRepo, summaryRepo, usageLogRepo, settingRepo, log)

	api.SetupRoutes(app, svc, authService)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.WithField("addr", addr).Info("starting server")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
