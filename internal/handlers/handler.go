package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ecovision/climate-analytics/internal/logging"
	"github.com/ecovision/climate-analytics/internal/models"
	"github.com/ecovision/climate-analytics/internal/services"
	"github.com/ecovision/climate-analytics/internal/storage"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handler contains all HTTP handlers
type Handler struct {
	logger *logging.Logger
	repo   storage.Repository
	// Services
	climateService   *services.ClimateService
	analyticsService *services.AnalyticsService
	ingestService    *services.IngestService
	invalidator      *services.Invalidator
}

// New creates a new handler instance
func New(
	logger *logging.Logger,
	repo storage.Repository,
	climateService *services.ClimateService,
	analyticsService *services.AnalyticsService,
	ingestService *services.IngestService,
	invalidator *services.Invalidator,
) *Handler {
	return &Handler{
		logger:           logger,
		repo:             repo,
		climateService:   climateService,
		analyticsService: analyticsService,
		ingestService:    ingestService,
		invalidator:      invalidator,
	}
}

// invalidRequest renders a validation failure
func invalidRequest(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadRequest
	message := err.Error()
	if fe, ok := err.(*fiber.Error); ok {
		status = fe.Code
		message = fe.Message
	}
	return c.Status(status).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    services.CodeInvalidParameter,
			Message: message,
		},
	})
}

// serviceError renders an error returned by the service layer
func (h *Handler) serviceError(c *fiber.Ctx, err error) error {
	if svcErr, ok := services.AsServiceError(err); ok {
		return c.Status(svcErr.HTTPStatus()).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    svcErr.Code,
				Message: svcErr.Message,
				Details: svcErr.Details,
			},
		})
	}

	h.logger.Error("Unexpected service error", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    services.CodeQueryFailed,
			Message: err.Error(),
		},
	})
}

// filterFromQuery reads the shared filter parameters
func filterFromQuery(c *fiber.Ctx) *models.FilterRequest {
	return models.NewFilterRequest(
		c.Query("location_id"),
		c.Query("start_date"),
		c.Query("end_date"),
		c.Query("metric"),
		c.Query("quality_threshold"),
	)
}
