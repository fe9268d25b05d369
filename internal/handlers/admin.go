package handlers

import (
	"bytes"
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ecovision/climate-analytics/internal/logging"
	"github.com/ecovision/climate-analytics/internal/models"
	"github.com/ecovision/climate-analytics/internal/storage"
	"github.com/ecovision/climate-analytics/internal/utils"
)

// Ingest handles POST /admin/ingest with a dataset document as body
func (h *Handler) Ingest(c *fiber.Ctx) error {
	ds, err := storage.ReadDataset(bytes.NewReader(c.Body()))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_JSON",
				Message: "Failed to parse dataset body",
				Details: map[string]interface{}{"error": err.Error()},
			},
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), utils.IngestTimeout)
	defer cancel()

	result, err := h.ingestService.Ingest(ctx, ds, "admin-ingest")
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(models.IngestResponse{
		RequestID:   logging.RequestID(c.UserContext()),
		DataVersion: result.DataVersion,
		Report:      result.Report,
	})
}
