package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ecovision/climate-analytics/internal/analytics/quality"
)

// Dataset is the bulk import document:
//
//	{"locations": [...], "metrics": [...], "climate_data": [...]}
type Dataset struct {
	Locations   []Location      `json:"locations"`
	Metrics     []Metric        `json:"metrics"`
	ClimateData []DatasetRecord `json:"climate_data"`
}

// DatasetRecord is an observation as it appears in a dataset document.
type DatasetRecord struct {
	ID         int64    `json:"id"`
	LocationID int64    `json:"location_id"`
	MetricID   int64    `json:"metric_id"`
	Date       string   `json:"date"`
	Value      *float64 `json:"value"`
	Quality    string   `json:"quality"`
}

// SkippedRow describes a dataset row rejected during validation.
type SkippedRow struct {
	Kind   string `json:"kind"` // location, metric or climate_data
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// IngestReport summarises an ingest.
type IngestReport struct {
	Locations  int          `json:"locations"`
	Metrics    int          `json:"metrics"`
	Records    int          `json:"records"`
	Duplicates int          `json:"duplicates"`
	Skipped    []SkippedRow `json:"skipped"`
}

// Changed reports whether the ingest stored anything new.
func (r *IngestReport) Changed() bool {
	return r.Locations+r.Metrics+r.Records > 0
}

// ReadDataset decodes a dataset document.
func ReadDataset(r io.Reader) (*Dataset, error) {
	var ds Dataset
	dec := json.NewDecoder(r)
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return &ds, nil
}

// LoadDataset reads a dataset document from a file.
func LoadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return ReadDataset(f)
}

// validated is a dataset reduced to rows that may be stored.
type validated struct {
	locations []Location
	metrics   []Metric
	records   []Record
	skipped   []SkippedRow
}

// validate filters the dataset. Rows are rejected for non-positive ids, a missing
// location region, out-of-range coordinates, an empty metric name, a missing or
// malformed date, a missing value, an unknown quality grade or a reference to a
// location or metric that exists neither in the dataset nor in known.
// Quality grades are normalised to lower case.
func (ds *Dataset) validate(knownLocations, knownMetrics map[int64]bool) validated {
	var out validated
	skip := func(kind string, id int64, reason string) {
		out.skipped = append(out.skipped, SkippedRow{Kind: kind, ID: id, Reason: reason})
	}

	locs := make(map[int64]bool, len(knownLocations)+len(ds.Locations))
	for id := range knownLocations {
		locs[id] = true
	}
	for _, l := range ds.Locations {
		switch {
		case l.ID <= 0:
			skip("location", l.ID, "id must be a positive integer")
		case strings.TrimSpace(l.Region) == "":
			skip("location", l.ID, "region is required")
		case l.Latitude < -90 || l.Latitude > 90 || l.Longitude < -180 || l.Longitude > 180:
			skip("location", l.ID, "coordinates out of range")
		default:
			out.locations = append(out.locations, l)
			locs[l.ID] = true
		}
	}

	mets := make(map[int64]bool, len(knownMetrics)+len(ds.Metrics))
	for id := range knownMetrics {
		mets[id] = true
	}
	for _, m := range ds.Metrics {
		switch {
		case m.ID <= 0:
			skip("metric", m.ID, "id must be a positive integer")
		case strings.TrimSpace(m.Name) == "":
			skip("metric", m.ID, "name is required")
		default:
			out.metrics = append(out.metrics, m)
			mets[m.ID] = true
		}
	}

	for _, r := range ds.ClimateData {
		if r.ID <= 0 {
			skip("climate_data", r.ID, "id must be a positive integer")
			continue
		}
		if r.LocationID <= 0 || !locs[r.LocationID] {
			skip("climate_data", r.ID, fmt.Sprintf("unknown location_id %d", r.LocationID))
			continue
		}
		if r.MetricID <= 0 || !mets[r.MetricID] {
			skip("climate_data", r.ID, fmt.Sprintf("unknown metric_id %d", r.MetricID))
			continue
		}
		date, err := time.Parse(DateLayout, r.Date)
		if err != nil {
			skip("climate_data", r.ID, "date must be in YYYY-MM-DD format")
			continue
		}
		if r.Value == nil {
			skip("climate_data", r.ID, "value is required")
			continue
		}
		g, err := quality.ParseGrade(r.Quality)
		if err != nil {
			skip("climate_data", r.ID, fmt.Sprintf("invalid quality %q", r.Quality))
			continue
		}
		out.records = append(out.records, Record{
			ID:         r.ID,
			LocationID: r.LocationID,
			MetricID:   r.MetricID,
			Date:       date,
			Value:      *r.Value,
			Quality:    g.String(),
		})
	}

	return out
}

// sortRecords orders records by date then id.
func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].ID < records[j].ID
	})
}
