package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ecovision/climate-analytics/internal/models"
	"github.com/ecovision/climate-analytics/internal/services"
)

// CacheStatusHeader reports whether an analytics response came from cache
const CacheStatusHeader = "X-Cache"

// Summary handles GET /api/v1/summary
func (h *Handler) Summary(c *fiber.Ctx) error {
	return h.analytics(c, h.analyticsService.Summary)
}

// Trends handles GET /api/v1/trends
func (h *Handler) Trends(c *fiber.Ctx) error {
	return h.analytics(c, h.analyticsService.Trends)
}

func (h *Handler) analytics(c *fiber.Ctx, run func(context.Context, *models.FilterRequest) (*services.AnalyticsResult, error)) error {
	input := filterFromQuery(c)
	if err := input.Validate(); err != nil {
		return invalidRequest(c, err)
	}

	result, err := run(c.UserContext(), input)
	if err != nil {
		return h.serviceError(c, err)
	}

	if result.Cached {
		c.Set(CacheStatusHeader, "HIT")
	} else {
		c.Set(CacheStatusHeader, "MISS")
	}
	return c.JSON(models.DataResponse{Data: result.Data})
}
