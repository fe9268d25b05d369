package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ecovision/climate-analytics/internal/cache"
	"github.com/ecovision/climate-analytics/internal/logging"
	"github.com/ecovision/climate-analytics/internal/models"
	"github.com/ecovision/climate-analytics/internal/storage"
)

// ClimateService serves raw records and the location and metric catalogs
type ClimateService struct {
	logger *logging.Logger
	repo   storage.Repository
	cache  cache.Cache
}

// NewClimateService creates a new ClimateService
func NewClimateService(logger *logging.Logger, repo storage.Repository, c cache.Cache) *ClimateService {
	return &ClimateService{
		logger: logger,
		repo:   repo,
		cache:  c,
	}
}

// RecordPage is one page of the climate listing
type RecordPage struct {
	Records []models.ClimateRecord
	Meta    models.PageMeta
}

// ListRecords returns one page of records matching a validated request
func (s *ClimateService) ListRecords(ctx context.Context, req *models.ClimateRequest) (*RecordPage, error) {
	startTime := time.Now()

	if err := checkMetric(ctx, s.repo, req.Metric); err != nil {
		return nil, err
	}

	filter := req.Filter()
	rows, err := s.repo.QueryRecords(ctx, filter, req.PageRequest())
	if err != nil {
		s.logger.Error("Record query failed", "error", err)
		return nil, queryFailed("Failed to fetch climate data", err)
	}

	total, err := s.repo.CountRecords(ctx, filter)
	if err != nil {
		s.logger.Error("Record count failed", "error", err)
		return nil, queryFailed("Failed to fetch climate data", err)
	}

	records := make([]models.ClimateRecord, len(rows))
	ids := make([]int64, len(rows))
	for i, r := range rows {
		records[i] = models.NewClimateRecord(r)
		ids[i] = r.ID
	}

	s.logger.Info("Fetched climate data",
		"location_id", req.LocationIDParsed,
		"metric", req.Metric,
		"page", req.PageParsed,
		"per_page", req.PerPageParsed,
		"returned_ids", ids,
		"latency_ms", time.Since(startTime).Milliseconds())

	return &RecordPage{
		Records: records,
		Meta: models.PageMeta{
			TotalCount: total,
			Page:       req.PageParsed,
			PerPage:    req.PerPageParsed,
		},
	}, nil
}

// ListLocations returns the encoded location catalog, cached until the next data change
func (s *ClimateService) ListLocations(ctx context.Context) (json.RawMessage, error) {
	if data, ok := cachedJSON(ctx, s.cache, s.logger, cache.KeyLocations); ok {
		return data, nil
	}

	locations, err := s.repo.ListLocations(ctx)
	if err != nil {
		s.logger.Error("Location query failed", "error", err)
		return nil, queryFailed("Failed to fetch locations", err)
	}
	if locations == nil {
		locations = []storage.Location{}
	}

	return storeJSON(ctx, s.cache, s.logger, cache.KeyLocations, locations, 0)
}

// ListMetrics returns the encoded metric catalog, cached until the next data change
func (s *ClimateService) ListMetrics(ctx context.Context) (json.RawMessage, error) {
	if data, ok := cachedJSON(ctx, s.cache, s.logger, cache.KeyMetrics); ok {
		return data, nil
	}

	list, err := s.repo.ListMetrics(ctx)
	if err != nil {
		s.logger.Error("Metric query failed", "error", err)
		return nil, queryFailed("Failed to fetch metrics", err)
	}
	if list == nil {
		list = []storage.Metric{}
	}

	return storeJSON(ctx, s.cache, s.logger, cache.KeyMetrics, list, 0)
}
