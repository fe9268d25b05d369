package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ecovision/climate-analytics/internal/analytics/engine"
	"github.com/ecovision/climate-analytics/internal/cache"
	"github.com/ecovision/climate-analytics/internal/logging"
	"github.com/ecovision/climate-analytics/internal/metrics"
	"github.com/ecovision/climate-analytics/internal/models"
	"github.com/ecovision/climate-analytics/internal/storage"
	"github.com/ecovision/climate-analytics/internal/utils"
)

// AnalyticsService computes summary and trend responses with versioned caching
type AnalyticsService struct {
	logger   *logging.Logger
	repo     storage.Repository
	cache    cache.Cache
	versions *cache.Versions
	engine   *engine.Engine
	ttl      time.Duration
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(
	logger *logging.Logger,
	repo storage.Repository,
	c cache.Cache,
	versions *cache.Versions,
	eng *engine.Engine,
	ttl time.Duration,
) *AnalyticsService {
	return &AnalyticsService{
		logger:   logger,
		repo:     repo,
		cache:    c,
		versions: versions,
		engine:   eng,
		ttl:      ttl,
	}
}

// AnalyticsResult is the encoded per-metric map for one analytics request
type AnalyticsResult struct {
	Data     json.RawMessage
	CacheKey string
	Cached   bool
}

// Summary returns the quality-weighted summary for every metric in the window
func (s *AnalyticsService) Summary(ctx context.Context, req *models.FilterRequest) (*AnalyticsResult, error) {
	return s.compute(ctx, utils.EndpointSummary, req, func(inputs []engine.MetricInput) map[string]interface{} {
		results := s.engine.SummarizeAll(inputs)
		out := make(map[string]interface{}, len(results))
		for name, r := range results {
			metrics.RecordComputation(utils.EndpointSummary, r.Err == nil)
			if r.Err != nil {
				s.logger.Warn("Summary failed for metric", "metric", name, "error", r.Err)
				out[name] = integrityError(r.Err)
				continue
			}
			out[name] = r
		}
		return out
	})
}

// Trends returns the trend, anomalies and seasonality for every metric in the window
func (s *AnalyticsService) Trends(ctx context.Context, req *models.FilterRequest) (*AnalyticsResult, error) {
	return s.compute(ctx, utils.EndpointTrends, req, func(inputs []engine.MetricInput) map[string]interface{} {
		results := s.engine.TrendsAll(inputs)
		out := make(map[string]interface{}, len(results))
		for name, r := range results {
			metrics.RecordComputation(utils.EndpointTrends, r.Err == nil)
			if r.Err != nil {
				s.logger.Warn("Trend analysis failed for metric", "metric", name, "error", r.Err)
				out[name] = integrityError(r.Err)
				continue
			}
			out[name] = r
		}
		return out
	})
}

// compute runs the cache-check, fetch, engine and cache-store pipeline shared by
// both analytics endpoints
func (s *AnalyticsService) compute(
	ctx context.Context,
	endpoint string,
	req *models.FilterRequest,
	run func([]engine.MetricInput) map[string]interface{},
) (*AnalyticsResult, error) {
	startTime := time.Now()
	epoch := s.versions.Epoch()
	key := s.versions.Key(endpoint, req.CacheParams())

	if data, ok := cachedJSON(ctx, s.cache, s.logger, key); ok {
		s.logger.Info("Cache hit", "endpoint", endpoint, "key", key)
		return &AnalyticsResult{Data: data, CacheKey: key, Cached: true}, nil
	}

	if err := checkMetric(ctx, s.repo, req.Metric); err != nil {
		return nil, err
	}

	rows, err := s.repo.QueryObservations(ctx, req.Filter())
	if err != nil {
		s.logger.Error("Observation query failed", "endpoint", endpoint, "error", err)
		return nil, queryFailed("Failed to fetch observations", err)
	}

	inputs := groupByMetric(rows)
	out := run(inputs)
	metrics.ObserveAnalytics(endpoint, startTime)

	var data json.RawMessage
	if s.versions.Epoch() == epoch {
		data, err = storeJSON(ctx, s.cache, s.logger, key, out, s.ttl)
	} else {
		// The cache was purged while computing; the result may predate the new data
		s.logger.Info("Skipping cache write after invalidation", "endpoint", endpoint, "key", key)
		data, err = json.Marshal(out)
	}
	if err != nil {
		s.logger.Error("Failed to encode analytics result", "endpoint", endpoint, "error", err)
		return nil, queryFailed("Failed to encode result", err)
	}

	s.logger.Info("Analytics computed",
		"endpoint", endpoint,
		"key", key,
		"metrics", len(inputs),
		"observations", len(rows),
		"latency_ms", time.Since(startTime).Milliseconds())

	return &AnalyticsResult{Data: data, CacheKey: key}, nil
}

// groupByMetric splits rows into one engine input per metric, in first-seen order
func groupByMetric(rows []storage.ObservationRow) []engine.MetricInput {
	index := make(map[string]int)
	var inputs []engine.MetricInput

	for _, r := range rows {
		i, ok := index[r.Metric]
		if !ok {
			i = len(inputs)
			index[r.Metric] = i
			inputs = append(inputs, engine.MetricInput{Name: r.Metric, Unit: r.Unit})
		}
		inputs[i].Rows = append(inputs[i].Rows, engine.Row{
			Date:    r.Date,
			Value:   r.Value,
			Quality: r.Quality,
		})
	}
	return inputs
}

func integrityError(err error) models.MetricError {
	return models.MetricError{Error: models.ErrorDetail{
		Code:    CodeDataIntegrity,
		Message: err.Error(),
	}}
}
