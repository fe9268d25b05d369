package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ecovision/climate-analytics/internal/models"
)

// ListClimate handles record listing
// GET /api/v1/climate?location_id=&start_date=&end_date=&metric=&quality_threshold=&page=&per_page=
func (h *Handler) ListClimate(c *fiber.Ctx) error {
	input := models.NewClimateRequest(filterFromQuery(c), c.Query("page"), c.Query("per_page"))
	if err := input.Validate(); err != nil {
		return invalidRequest(c, err)
	}

	page, err := h.climateService.ListRecords(c.UserContext(), input)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(models.ListResponse{
		Data: page.Records,
		Meta: page.Meta,
	})
}

// ListLocations handles GET /api/v1/locations
func (h *Handler) ListLocations(c *fiber.Ctx) error {
	data, err := h.climateService.ListLocations(c.UserContext())
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(models.DataResponse{Data: data})
}

// ListMetrics handles GET /api/v1/metrics
func (h *Handler) ListMetrics(c *fiber.Ctx) error {
	data, err := h.climateService.ListMetrics(c.UserContext())
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(models.DataResponse{Data: data})
}
