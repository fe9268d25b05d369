package models

import "github.com/ecovision/climate-analytics/internal/storage"

// HealthResponse represents health check response
type HealthResponse struct {
	Status      string            `json:"status"`
	Timestamp   string            `json:"timestamp"`
	Version     string            `json:"version"`
	DataVersion int64             `json:"data_version"`
	Checks      map[string]string `json:"checks,omitempty"`
}

// DataResponse wraps a payload in the {"data": ...} envelope
type DataResponse struct {
	Data interface{} `json:"data"`
}

// PageMeta describes a page of results
type PageMeta struct {
	TotalCount int64 `json:"total_count"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
}

// ListResponse is a paginated {"data": [...], "meta": {...}} envelope
type ListResponse struct {
	Data interface{} `json:"data"`
	Meta PageMeta    `json:"meta"`
}

// ClimateRecord is one joined observation in the climate listing
type ClimateRecord struct {
	ID           int64   `json:"id"`
	LocationID   int64   `json:"location_id"`
	LocationName string  `json:"location_name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Date         string  `json:"date"`
	Metric       string  `json:"metric"`
	Value        float64 `json:"value"`
	Unit         string  `json:"unit"`
	Quality      string  `json:"quality"`
}

// NewClimateRecord converts a storage row to its JSON view
func NewClimateRecord(v storage.RecordView) ClimateRecord {
	return ClimateRecord{
		ID:           v.ID,
		LocationID:   v.LocationID,
		LocationName: v.LocationName,
		Latitude:     v.Latitude,
		Longitude:    v.Longitude,
		Date:         v.Date.Format(storage.DateLayout),
		Metric:       v.Metric,
		Value:        v.Value,
		Unit:         v.Unit,
		Quality:      v.Quality,
	}
}

// IngestResponse reports the outcome of an admin ingest
type IngestResponse struct {
	RequestID   string                `json:"request_id"`
	DataVersion int64                 `json:"data_version"`
	Report      *storage.IngestReport `json:"report"`
}

// MetricError is the entry for a metric whose computation failed
type MetricError struct {
	Error ErrorDetail `json:"error"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
