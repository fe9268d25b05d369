package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ecovision/climate-analytics/internal/models"
)

// Health handles health check requests
func (h *Handler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "healthy"
	checks := map[string]string{"storage": "ok"}
	code := fiber.StatusOK
	if err := h.repo.Ping(ctx); err != nil {
		status = "unhealthy"
		checks["storage"] = err.Error()
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(models.HealthResponse{
		Status:      status,
		Timestamp:   time.Now().Format(time.RFC3339),
		Version:     Version,
		DataVersion: h.invalidator.Versions().Data(),
		Checks:      checks,
	})
}

// NotFound handles 404 errors
func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "NOT_FOUND",
			Message: "Route not found",
			Path:    c.Path(),
		},
	})
}
