package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ecovision/climate-analytics/internal/config"
	"github.com/ecovision/climate-analytics/internal/models"
)

// RateLimit limits each client IP to cfg.AnalyticsPerMinute requests per minute
func RateLimit(cfg config.RateLimitConfig) fiber.Handler {
	if !cfg.Enabled {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	return limiter.New(limiter.Config{
		Max:        cfg.AnalyticsPerMinute,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "RATE_LIMITED",
					Message: "Rate limit exceeded: " + strconv.Itoa(cfg.AnalyticsPerMinute) + " per minute.",
					Path:    c.Path(),
				},
			})
		},
	})
}
