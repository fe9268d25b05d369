// Package storage persists locations, metrics and daily climate observations and
// answers the filtered queries the API and analytics layers need.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ecovision/climate-analytics/internal/analytics/quality"
)

// DateLayout is the wire and storage format of observation dates.
const DateLayout = "2006-01-02"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Location is a monitoring site.
type Location struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Region    string  `json:"region"`
}

// Metric is a measured quantity such as temperature or precipitation.
type Metric struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

// Record is a single stored observation.
type Record struct {
	ID         int64
	LocationID int64
	MetricID   int64
	Date       time.Time
	Value      float64
	Quality    string
}

// RecordView is a record joined with its location and metric.
type RecordView struct {
	ID           int64
	LocationID   int64
	LocationName string
	Latitude     float64
	Longitude    float64
	Date         time.Time
	Metric       string
	Value        float64
	Unit         string
	Quality      string
}

// ObservationRow is the minimal row shape consumed by the analytics engine.
type ObservationRow struct {
	Metric  string
	Unit    string
	Date    time.Time
	Value   float64
	Quality string
}

// Filter selects records. Zero fields do not constrain the selection.
type Filter struct {
	LocationID int64
	Metric     string // case-insensitive metric name
	StartDate  time.Time
	EndDate    time.Time // inclusive
	Qualities  []quality.Grade
}

// Page is a 1-based page request.
type Page struct {
	Number  int
	PerPage int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.PerPage
}

// Repository is the persistence contract for climate data.
type Repository interface {
	ListLocations(ctx context.Context) ([]Location, error)
	ListMetrics(ctx context.Context) ([]Metric, error)
	// GetMetric looks a metric up by case-insensitive name; ErrNotFound if absent.
	GetMetric(ctx context.Context, name string) (*Metric, error)
	// QueryRecords returns one page of matching records ordered by date then id.
	QueryRecords(ctx context.Context, f Filter, p Page) ([]RecordView, error)
	CountRecords(ctx context.Context, f Filter) (int64, error)
	// QueryObservations returns every matching observation ordered by metric then date.
	QueryObservations(ctx context.Context, f Filter) ([]ObservationRow, error)
	// Ingest validates and stores a dataset; existing ids are left untouched.
	Ingest(ctx context.Context, ds *Dataset) (*IngestReport, error)
	Ping(ctx context.Context) error
	Close() error
}

// matches reports whether a record passes the filter. Used by the memory store and
// mirrored by the SQL WHERE clause of the postgres store.
func (f Filter) matches(r *Record, metricName string) bool {
	if f.LocationID != 0 && r.LocationID != f.LocationID {
		return false
	}
	if f.Metric != "" && !strings.EqualFold(metricName, f.Metric) {
		return false
	}
	if !f.StartDate.IsZero() && r.Date.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && r.Date.After(f.EndDate) {
		return false
	}
	if f.Qualities != nil {
		g, err := quality.ParseGrade(r.Quality)
		if err != nil {
			return false
		}
		for _, allowed := range f.Qualities {
			if g == allowed {
				return true
			}
		}
		return false
	}
	return true
}

// qualityNames returns the lower-case names of the filter's grades.
func (f Filter) qualityNames() []string {
	names := make([]string, len(f.Qualities))
	for i, g := range f.Qualities {
		names[i] = g.String()
	}
	return names
}
