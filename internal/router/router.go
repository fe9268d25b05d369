package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ecovision/climate-analytics/internal/config"
	"github.com/ecovision/climate-analytics/internal/handlers"
	"github.com/ecovision/climate-analytics/internal/logging"
	"github.com/ecovision/climate-analytics/internal/metrics"
	"github.com/ecovision/climate-analytics/internal/middleware"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, h *handlers.Handler, cfg config.Config) {
	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger, logging.DefaultMiddlewareConfig()))
	app.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))
	app.Use(metrics.Middleware())

	// Operational endpoints
	app.Get("/health", h.Health)
	app.Get("/metrics", metrics.Handler())

	// Public API
	v1 := app.Group("/api/v1")
	v1.Get("/climate", h.ListClimate)
	v1.Get("/locations", h.ListLocations)
	v1.Get("/metrics", h.ListMetrics)

	// Analytics routes, each with its own per-client budget
	v1.Get("/summary", middleware.RateLimit(cfg.RateLimit), h.Summary)
	v1.Get("/trends", middleware.RateLimit(cfg.RateLimit), h.Trends)

	// Admin routes (protected by API key)
	admin := app.Group("/admin", middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled))
	admin.Post("/ingest", h.Ingest)

	// 404 handler
	app.Use(h.NotFound)
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, h *handlers.Handler, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "EcoVision Climate API",
		DisableStartupMessage: true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		BodyLimit:             cfg.Server.BodyLimit,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, h, cfg)

	return app
}
