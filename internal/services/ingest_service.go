package services

import (
	"context"
	"time"

	"github.com/ecovision/climate-analytics/internal/logging"
	"github.com/ecovision/climate-analytics/internal/metrics"
	"github.com/ecovision/climate-analytics/internal/queue"
	"github.com/ecovision/climate-analytics/internal/storage"
	"github.com/ecovision/climate-analytics/internal/utils"
)

// IngestService loads datasets into the repository and announces data changes
type IngestService struct {
	logger      *logging.Logger
	repo        storage.Repository
	publisher   queue.Publisher
	subject     string
	invalidator *Invalidator
}

// NewIngestService creates a new IngestService. The local invalidator is applied
// before publishing so this replica never serves stale data, even if the bus is down.
func NewIngestService(
	logger *logging.Logger,
	repo storage.Repository,
	publisher queue.Publisher,
	subject string,
	invalidator *Invalidator,
) *IngestService {
	return &IngestService{
		logger:      logger,
		repo:        repo,
		publisher:   publisher,
		subject:     subject,
		invalidator: invalidator,
	}
}

// IngestResult is the outcome of one ingest
type IngestResult struct {
	Report      *storage.IngestReport
	DataVersion int64
}

// Ingest validates and stores a dataset. When anything new was stored the data
// version moves forward and a DataChangedEvent is published.
func (s *IngestService) Ingest(ctx context.Context, ds *storage.Dataset, source string) (*IngestResult, error) {
	if ds == nil || (len(ds.Locations) == 0 && len(ds.Metrics) == 0 && len(ds.ClimateData) == 0) {
		return nil, NewServiceError(CodeNoData, "Dataset contains no locations, metrics or climate_data.")
	}

	startTime := time.Now()
	report, err := s.repo.Ingest(ctx, ds)
	if err != nil {
		s.logger.Error("Ingest failed", "source", source, "error", err)
		return nil, NewServiceErrorWithDetails(CodeIngestFailed, "Failed to ingest dataset",
			map[string]interface{}{"error": err.Error()})
	}

	metrics.IngestedRecordsTotal.WithLabelValues("inserted").Add(float64(report.Records))
	metrics.IngestedRecordsTotal.WithLabelValues("duplicate").Add(float64(report.Duplicates))
	metrics.IngestedRecordsTotal.WithLabelValues("skipped").Add(float64(len(report.Skipped)))

	version := s.invalidator.versions.Data()
	if report.Changed() {
		event := queue.DataChangedEvent{
			DataVersion: version + 1,
			Origin:      s.invalidator.Instance(),
			Source:      source,
			Records:     report.Records,
			At:          time.Now().UTC(),
		}
		version = s.invalidator.Apply(ctx, event)
		event.DataVersion = version
		s.publish(ctx, event)
	}

	s.logger.Info("Dataset ingested",
		"source", source,
		"locations", report.Locations,
		"metrics", report.Metrics,
		"records", report.Records,
		"duplicates", report.Duplicates,
		"skipped", len(report.Skipped),
		"data_version", version,
		"latency_ms", time.Since(startTime).Milliseconds())

	return &IngestResult{Report: report, DataVersion: version}, nil
}

// publish broadcasts the event to other replicas; failures only affect remote caches
func (s *IngestService) publish(ctx context.Context, event queue.DataChangedEvent) {
	if s.publisher == nil {
		return
	}
	data, err := event.Encode()
	if err != nil {
		s.logger.Error("Failed to encode data-changed event", "error", err)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, utils.PublishTimeout)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, s.subject, data); err != nil {
		s.logger.Error("Failed to publish data-changed event",
			"subject", s.subject,
			"data_version", event.DataVersion,
			"error", err)
	}
}
