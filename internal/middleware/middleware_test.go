package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecovision/climate-analytics/internal/config"
	"github.com/ecovision/climate-analytics/internal/logging"
	"github.com/ecovision/climate-analytics/internal/models"
	"github.com/ecovision/climate-analytics/internal/services"
)

// generateAPIKey generates a valid API key of specified length
func generateAPIKey(length int) string {
	key := make([]byte, length)
	for i := range key {
		key[i] = 'a' + byte(i%26)
	}
	return string(key)
}

func decodeError(t *testing.T, body io.Reader) models.ErrorDetail {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp.Error
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected bool
	}{
		{"exactly 32 chars", generateAPIKey(32), true},
		{"longer than 32 chars", generateAPIKey(64), true},
		{"31 chars", generateAPIKey(31), false},
		{"empty", "", false},
		{"32 spaces", strings.Repeat(" ", 32), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateAPIKey(tt.key))
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	key := generateAPIKey(40)

	app := fiber.New()
	app.Use(APIKeyAuth(logging.Nop(), []string{key, "short"}, true))
	app.Post("/admin/ingest", func(c *fiber.Ctx) error { return c.SendString("ok") })

	tests := []struct {
		name   string
		header string
		value  string
		status int
		msg    string
	}{
		{"x-api-key", "X-API-Key", key, fiber.StatusOK, ""},
		{"bearer", "Authorization", "Bearer " + key, fiber.StatusOK, ""},
		{"bare authorization", "Authorization", key, fiber.StatusOK, ""},
		{"missing", "", "", fiber.StatusUnauthorized, "API key is required"},
		{"wrong", "X-API-Key", generateAPIKey(39) + "z", fiber.StatusUnauthorized, "Invalid API key."},
		{"too short key rejected", "X-API-Key", "short", fiber.StatusUnauthorized, "Invalid API key."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/admin/ingest", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.msg != "" {
				detail := decodeError(t, resp.Body)
				assert.Equal(t, "UNAUTHORIZED", detail.Code)
				assert.Contains(t, detail.Message, tt.msg)
			}
		})
	}
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	app := fiber.New()
	app.Use(APIKeyAuth(logging.Nop(), nil, false))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"fiber not found", fiber.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "Not Found"},
		{"fiber body too large", fiber.ErrRequestEntityTooLarge, fiber.StatusRequestEntityTooLarge, "REQUEST_ENTITY_TOO_LARGE", "Request Entity Too Large"},
		{"service error", services.NewServiceError(services.CodeInvalidMetric, "Invalid metric name."), fiber.StatusBadRequest, "INVALID_METRIC", "Invalid metric name."},
		{"plain error", errors.New("boom"), fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Nop())})
			app.Get("/x", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/x", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			detail := decodeError(t, resp.Body)
			assert.Equal(t, tt.wantCode, detail.Code)
			assert.Equal(t, tt.wantMsg, detail.Message)
			assert.Equal(t, "/x", detail.Path)
		})
	}
}

func TestRateLimit(t *testing.T) {
	app := fiber.New()
	app.Get("/limited", RateLimit(config.RateLimitConfig{Enabled: true, AnalyticsPerMinute: 2}), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/other", RateLimit(config.RateLimitConfig{Enabled: true, AnalyticsPerMinute: 2}), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/limited", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/limited", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, resp.Body).Code)

	resp, err = app.Test(httptest.NewRequest("GET", "/other", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "each route keeps its own budget")
}

func TestRateLimit_Disabled(t *testing.T) {
	app := fiber.New()
	app.Get("/", RateLimit(config.RateLimitConfig{Enabled: false}), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestRequestTimeout(t *testing.T) {
	app := fiber.New()
	app.Use(RequestTimeout(50 * time.Millisecond))
	app.Get("/", func(c *fiber.Ctx) error {
		deadline, ok := c.UserContext().Deadline()
		if !ok {
			return c.SendString("none")
		}
		if time.Until(deadline) > 50*time.Millisecond {
			return c.SendString("late")
		}
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))

	app = fiber.New()
	app.Use(RequestTimeout(0))
	app.Get("/", func(c *fiber.Ctx) error {
		_, ok := c.UserContext().Deadline()
		assert.False(t, ok)
		return c.SendStatus(fiber.StatusNoContent)
	})
	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
