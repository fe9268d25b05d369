package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ecovision/climate-analytics/internal/logging"
)

// MemoryStore is an in-process Repository. Records are kept ordered by date then id.
type MemoryStore struct {
	mu        sync.RWMutex
	locations map[int64]Location
	metrics   map[int64]Metric
	records   []Record
	recordIDs map[int64]struct{}
	logger    *logging.Logger
}

// NewMemoryStore creates an empty in-memory repository
func NewMemoryStore(logger *logging.Logger) *MemoryStore {
	if logger == nil {
		logger = logging.Global()
	}
	return &MemoryStore{
		locations: make(map[int64]Location),
		metrics:   make(map[int64]Metric),
		recordIDs: make(map[int64]struct{}),
		logger:    logger,
	}
}

// ListLocations returns all locations ordered by id
func (s *MemoryStore) ListLocations(_ context.Context) ([]Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Location, 0, len(s.locations))
	for _, l := range s.locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListMetrics returns all metrics ordered by id
func (s *MemoryStore) ListMetrics(_ context.Context) ([]Metric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Metric, 0, len(s.metrics))
	for _, m := range s.metrics {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetMetric finds a metric by case-insensitive name
func (s *MemoryStore) GetMetric(_ context.Context, name string) (*Metric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.metrics {
		if strings.EqualFold(m.Name, name) {
			found := m
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

// QueryRecords returns one page of matching records
func (s *MemoryStore) QueryRecords(ctx context.Context, f Filter, p Page) ([]RecordView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	offset := p.Offset()
	out := make([]RecordView, 0, p.PerPage)
	matched := 0
	for i := range s.records {
		r := &s.records[i]
		metric := s.metrics[r.MetricID]
		if !f.matches(r, metric.Name) {
			continue
		}
		matched++
		if matched <= offset {
			continue
		}
		if p.PerPage > 0 && len(out) >= p.PerPage {
			break
		}
		loc := s.locations[r.LocationID]
		out = append(out, RecordView{
			ID:           r.ID,
			LocationID:   r.LocationID,
			LocationName: loc.Name,
			Latitude:     loc.Latitude,
			Longitude:    loc.Longitude,
			Date:         r.Date,
			Metric:       metric.Name,
			Value:        r.Value,
			Unit:         metric.Unit,
			Quality:      r.Quality,
		})
	}
	return out, ctx.Err()
}

// CountRecords counts matching records
func (s *MemoryStore) CountRecords(ctx context.Context, f Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for i := range s.records {
		r := &s.records[i]
		if f.matches(r, s.metrics[r.MetricID].Name) {
			n++
		}
	}
	return n, ctx.Err()
}

// QueryObservations returns every matching observation ordered by metric then date
func (s *MemoryStore) QueryObservations(ctx context.Context, f Filter) ([]ObservationRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ObservationRow
	for i := range s.records {
		r := &s.records[i]
		metric := s.metrics[r.MetricID]
		if !f.matches(r, metric.Name) {
			continue
		}
		out = append(out, ObservationRow{
			Metric:  metric.Name,
			Unit:    metric.Unit,
			Date:    r.Date,
			Value:   r.Value,
			Quality: r.Quality,
		})
	}
	// records are date-ordered already; a stable sort keeps that within each metric
	sort.SliceStable(out, func(i, j int) bool { return out[i].Metric < out[j].Metric })
	return out, ctx.Err()
}

// Ingest validates and stores a dataset. Rows whose id already exists are counted
// as duplicates and left untouched.
func (s *MemoryStore) Ingest(ctx context.Context, ds *Dataset) (*IngestReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	knownLocs := make(map[int64]bool, len(s.locations))
	for id := range s.locations {
		knownLocs[id] = true
	}
	knownMets := make(map[int64]bool, len(s.metrics))
	for id := range s.metrics {
		knownMets[id] = true
	}

	v := ds.validate(knownLocs, knownMets)
	report := &IngestReport{Skipped: v.skipped}

	for _, l := range v.locations {
		if _, exists := s.locations[l.ID]; exists {
			report.Duplicates++
			continue
		}
		s.locations[l.ID] = l
		report.Locations++
	}
	for _, m := range v.metrics {
		if _, exists := s.metrics[m.ID]; exists {
			report.Duplicates++
			continue
		}
		s.metrics[m.ID] = m
		report.Metrics++
	}
	for _, r := range v.records {
		if _, exists := s.recordIDs[r.ID]; exists {
			report.Duplicates++
			continue
		}
		s.recordIDs[r.ID] = struct{}{}
		s.records = append(s.records, r)
		report.Records++
	}
	if report.Records > 0 {
		sortRecords(s.records)
	}

	for _, sk := range report.Skipped {
		s.logger.Warn("Skipping dataset row", "kind", sk.Kind, "id", sk.ID, "reason", sk.Reason)
	}

	return report, nil
}

// Ping always succeeds for the memory store
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close releases nothing for the memory store
func (s *MemoryStore) Close() error {
	return nil
}
