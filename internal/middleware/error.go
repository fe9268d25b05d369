package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ecovision/climate-analytics/internal/logging"
	"github.com/ecovision/climate-analytics/internal/models"
	"github.com/ecovision/climate-analytics/internal/services"
)

// ErrorHandler returns the app-wide error handler. Service errors keep their code;
// fiber errors map to a code derived from their status text.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		detail := models.ErrorDetail{
			Code:    "INTERNAL_ERROR",
			Message: "Internal Server Error",
			Path:    c.Path(),
		}

		var fe *fiber.Error
		if svcErr, ok := services.AsServiceError(err); ok {
			code = svcErr.HTTPStatus()
			detail.Code = svcErr.Code
			detail.Message = svcErr.Message
			detail.Details = svcErr.Details
		} else if errors.As(err, &fe) {
			code = fe.Code
			detail.Code = statusCode(fe.Code)
			detail.Message = fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("Request error",
				"path", c.Path(),
				"method", c.Method(),
				"status", code,
				"error", err,
			)
		}

		return c.Status(code).JSON(models.ErrorResponse{Error: detail})
	}
}

// statusCode turns a status into an upper-snake error code, e.g. 413 -> REQUEST_ENTITY_TOO_LARGE
func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "ERROR"
	}
	return strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(text))
}
