// Package metrics exposes the API's Prometheus instrumentation
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP Request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecovision_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecovision_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Response cache metrics
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecovision_cache_requests_total",
			Help: "Total number of cache requests",
		},
		[]string{"operation", "result"}, // get/set, hit/miss/error/ok
	)

	CacheInvalidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ecovision_cache_invalidations_total",
			Help: "Total number of data-changed events applied to the cache",
		},
	)

	// Analytics engine metrics
	AnalyticsComputationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecovision_analytics_computations_total",
			Help: "Per-metric analytics computations by kind and outcome",
		},
		[]string{"kind", "outcome"}, // summary/trends, ok/integrity_error
	)

	AnalyticsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecovision_analytics_duration_seconds",
			Help:    "Time spent computing an analytics response",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"kind"},
	)

	// Ingest metrics
	IngestedRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecovision_ingested_records_total",
			Help: "Climate records processed by ingest, by result",
		},
		[]string{"result"}, // inserted/duplicate/skipped
	)

	DataVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ecovision_data_version",
			Help: "Current data version embedded in cache keys",
		},
	)
)

// RecordCache counts a cache operation
func RecordCache(operation, result string) {
	CacheRequestsTotal.WithLabelValues(operation, result).Inc()
}

// RecordComputation counts a per-metric computation and its outcome
func RecordComputation(kind string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "integrity_error"
	}
	AnalyticsComputationsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveAnalytics records how long an analytics response took
func ObserveAnalytics(kind string, started time.Time) {
	AnalyticsDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

// Middleware records request counts and latency per route pattern
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		endpoint := c.Route().Path
		method := c.Method()
		HTTPRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the Prometheus exposition format
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
