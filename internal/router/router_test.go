package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecovision/climate-analytics/internal/analytics/engine"
	"github.com/ecovision/climate-analytics/internal/cache"
	"github.com/ecovision/climate-analytics/internal/config"
	"github.com/ecovision/climate-analytics/internal/handlers"
	"github.com/ecovision/climate-analytics/internal/logging"
	"github.com/ecovision/climate-analytics/internal/queue"
	"github.com/ecovision/climate-analytics/internal/services"
	"github.com/ecovision/climate-analytics/internal/storage"
)

const testAPIKey = "0123456789abcdef0123456789abcdef"

const seedDataset = `{
  "locations": [
    {"id": 1, "name": "Irvine", "country": "USA", "latitude": 33.68, "longitude": -117.82, "region": "California"},
    {"id": 2, "name": "Tokyo", "country": "Japan", "latitude": 35.67, "longitude": 139.65, "region": "Kanto"}
  ],
  "metrics": [
    {"id": 1, "name": "temperature", "display_name": "Temperature", "unit": "celsius", "description": ""},
    {"id": 2, "name": "precipitation", "display_name": "Precipitation", "unit": "mm", "description": ""}
  ],
  "climate_data": [
    {"id": 1, "location_id": 1, "metric_id": 1, "date": "2023-01-01", "value": 10.0, "quality": "good"},
    {"id": 2, "location_id": 1, "metric_id": 1, "date": "2023-02-01", "value": 12.0, "quality": "excellent"},
    {"id": 3, "location_id": 1, "metric_id": 1, "date": "2023-03-01", "value": 14.0, "quality": "poor"},
    {"id": 4, "location_id": 2, "metric_id": 1, "date": "2023-01-15", "value": 5.5, "quality": "questionable"},
    {"id": 5, "location_id": 1, "metric_id": 2, "date": "2023-01-01", "value": 3.2, "quality": "good"}
  ]
}`

func newTestApp(t *testing.T, mutate func(*config.Config)) *fiber.App {
	t.Helper()
	logger := logging.Nop()

	cfg := config.DefaultConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{testAPIKey}}
	cfg.RateLimit.AnalyticsPerMinute = 100
	if mutate != nil {
		mutate(cfg)
	}

	repo := storage.NewMemoryStore(logger)
	c := cache.NewMemoryCache(time.Minute)
	q, err := queue.NewQueue(cfg.Queue, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = q.Close()
		_ = c.Close()
	})

	engCfg, err := cfg.Analytics.EngineConfig()
	require.NoError(t, err)
	eng, err := engine.New(engCfg)
	require.NoError(t, err)

	versions := cache.NewVersions(cfg.Versions.Data, cfg.Versions.Algo)
	invalidator := services.NewInvalidator(logger, c, versions)
	require.NoError(t, invalidator.Start(q, cfg.Queue.Subject))

	h := handlers.New(logger, repo,
		services.NewClimateService(logger, repo, c),
		services.NewAnalyticsService(logger, repo, c, versions, eng, cfg.Cache.TTL),
		services.NewIngestService(logger, repo, q, cfg.Queue.Subject, invalidator),
		invalidator,
	)
	app := New(logger, h, *cfg)

	resp := do(t, app, ingestRequest(seedDataset, testAPIKey))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	return app
}

func ingestRequest(body, key string) *http.Request {
	req := httptest.NewRequest("POST", "/admin/ingest", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	return req
}

func do(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func get(t *testing.T, app *fiber.App, url string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp := do(t, app, httptest.NewRequest("GET", url, nil))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return resp, out
}

func errorCode(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, nil)

	resp, body := get(t, app, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, handlers.Version, body["version"])
	assert.Equal(t, 2.0, body["data_version"], "seed ingest bumps the version once")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestClimateListing(t *testing.T) {
	app := newTestApp(t, nil)

	resp, body := get(t, app, "/api/v1/climate?location_id=1&metric=Temperature&per_page=2&page=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, 3.0, meta["total_count"])
	assert.Equal(t, 2.0, meta["page"])
	assert.Equal(t, 2.0, meta["per_page"])

	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	row := data[0].(map[string]interface{})
	assert.Equal(t, 3.0, row["id"])
	assert.Equal(t, "2023-03-01", row["date"])
	assert.Equal(t, "Irvine", row["location_name"])
	assert.Equal(t, "celsius", row["unit"])
}

func TestClimateListing_QualityThreshold(t *testing.T) {
	app := newTestApp(t, nil)

	_, body := get(t, app, "/api/v1/climate?quality_threshold=excellent")
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, 2.0, data[0].(map[string]interface{})["id"])
}

func TestValidationErrors(t *testing.T) {
	app := newTestApp(t, nil)

	tests := []struct {
		url  string
		code string
		msg  string
	}{
		{"/api/v1/climate?location_id=abc", "INVALID_PARAMETER", "location_id must be a positive integer."},
		{"/api/v1/climate?start_date=2023-1-1", "INVALID_PARAMETER", "start_date must be in YYYY-MM-DD format."},
		{"/api/v1/summary?start_date=2023-02-01&end_date=2023-01-01", "INVALID_PARAMETER", "end_date must be greater than or equal to start_date."},
		{"/api/v1/trends?quality_threshold=best", "INVALID_PARAMETER", "Invalid quality_threshold value."},
		{"/api/v1/summary?metric=humidity", "INVALID_METRIC", "Invalid metric name."},
		{"/api/v1/climate?per_page=0", "INVALID_PARAMETER", "per_page must be a positive integer."},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			resp, body := get(t, app, tt.url)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(body))
			assert.Equal(t, tt.msg, body["error"].(map[string]interface{})["message"])
		})
	}
}

func TestCatalogs(t *testing.T) {
	app := newTestApp(t, nil)

	_, locations := get(t, app, "/api/v1/locations")
	assert.Len(t, locations["data"], 2)

	_, metrics := get(t, app, "/api/v1/metrics")
	list := metrics["data"].([]interface{})
	require.Len(t, list, 2)
	names := []string{
		list[0].(map[string]interface{})["name"].(string),
		list[1].(map[string]interface{})["name"].(string),
	}
	assert.ElementsMatch(t, []string{"temperature", "precipitation"}, names)
}

func TestSummary_CachedAndInvalidated(t *testing.T) {
	app := newTestApp(t, nil)
	url := "/api/v1/summary?location_id=1&metric=temperature"

	resp, body := get(t, app, url)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))

	temp := body["data"].(map[string]interface{})["temperature"].(map[string]interface{})
	assert.InDelta(t, 11.5238, temp["weighted_avg"].(float64), 1e-4)
	assert.Equal(t, 3.0, temp["count"])

	resp, _ = get(t, app, url)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))

	more := `{"climate_data": [{"id": 6, "location_id": 1, "metric_id": 1, "date": "2023-04-01", "value": 20.0, "quality": "excellent"}]}`
	ingest := do(t, app, ingestRequest(more, testAPIKey))
	require.Equal(t, http.StatusOK, ingest.StatusCode)

	resp, body = get(t, app, url)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	temp = body["data"].(map[string]interface{})["temperature"].(map[string]interface{})
	assert.Equal(t, 4.0, temp["count"])
}

func TestTrends(t *testing.T) {
	app := newTestApp(t, nil)

	resp, body := get(t, app, "/api/v1/trends?location_id=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	temp := data["temperature"].(map[string]interface{})
	trend := temp["trend"].(map[string]interface{})
	assert.Equal(t, "increasing", trend["direction"])
	assert.Equal(t, "celsius/month", trend["unit"])
	assert.InDelta(t, 1.0, trend["confidence"].(float64), 1e-2)
	assert.Equal(t, []interface{}{}, temp["anomalies"])

	season := temp["seasonality"].(map[string]interface{})
	assert.Equal(t, false, season["detected"])
	assert.Nil(t, season["period"])

	precip := data["precipitation"].(map[string]interface{})["trend"].(map[string]interface{})
	assert.Nil(t, precip["direction"])
	assert.Nil(t, precip["rate"])
	assert.Nil(t, precip["confidence"])
}

func TestAnalytics_RateLimited(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) {
		cfg.RateLimit = config.RateLimitConfig{Enabled: true, AnalyticsPerMinute: 1}
	})

	resp, _ := get(t, app, "/api/v1/trends")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := get(t, app, "/api/v1/trends")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", errorCode(body))

	resp, _ = get(t, app, "/api/v1/summary")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIngest_AuthAndBody(t *testing.T) {
	app := newTestApp(t, nil)

	resp := do(t, app, ingestRequest(seedDataset, ""))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, app, ingestRequest("{not json", testAPIKey))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, app, ingestRequest(`{}`, testAPIKey))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, app, ingestRequest(seedDataset, testAPIKey))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		DataVersion int64 `json:"data_version"`
		Report      struct {
			Duplicates int `json:"duplicates"`
			Records    int `json:"records"`
		} `json:"report"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, int64(2), out.DataVersion, "a duplicate-only ingest leaves the version alone")
	assert.Equal(t, 9, out.Report.Duplicates)
	assert.Equal(t, 0, out.Report.Records)
}

func TestNotFound(t *testing.T) {
	app := newTestApp(t, nil)

	resp, body := get(t, app, "/api/v2/nothing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, nil)
	get(t, app, "/api/v1/summary")

	resp := do(t, app, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.Contains(body, []byte("ecovision_http_requests_total")))
	assert.True(t, bytes.Contains(body, []byte("ecovision_analytics_computations_total")))
}
