package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ecovision/climate-analytics/internal/analytics/quality"
	"github.com/ecovision/climate-analytics/internal/storage"
	"github.com/ecovision/climate-analytics/internal/utils"
)

// FilterRequest holds the query parameters shared by the climate, summary and
// trends endpoints
type FilterRequest struct {
	LocationID       string
	StartDate        string
	EndDate          string
	Metric           string
	QualityThreshold string

	LocationIDParsed int64
	StartDateParsed  time.Time
	EndDateParsed    time.Time
	MinQuality       *quality.Grade
}

// NewFilterRequest creates a FilterRequest from raw query values
func NewFilterRequest(locationID, startDate, endDate, metric, qualityThreshold string) *FilterRequest {
	return &FilterRequest{
		LocationID:       strings.TrimSpace(locationID),
		StartDate:        strings.TrimSpace(startDate),
		EndDate:          strings.TrimSpace(endDate),
		Metric:           strings.TrimSpace(metric),
		QualityThreshold: strings.TrimSpace(qualityThreshold),
	}
}

// Validate checks every parameter and fills the parsed fields. Metric existence is
// checked by the service layer against the repository.
func (r *FilterRequest) Validate() error {
	if r.LocationID != "" {
		id, ok := positiveInt(r.LocationID)
		if !ok {
			return badRequest("location_id must be a positive integer.")
		}
		r.LocationIDParsed = id
	}

	if r.StartDate != "" {
		d, err := time.Parse(storage.DateLayout, r.StartDate)
		if err != nil {
			return badRequest("start_date must be in YYYY-MM-DD format.")
		}
		r.StartDateParsed = d
	}

	if r.EndDate != "" {
		d, err := time.Parse(storage.DateLayout, r.EndDate)
		if err != nil {
			return badRequest("end_date must be in YYYY-MM-DD format.")
		}
		r.EndDateParsed = d
	}

	if r.StartDate != "" && r.EndDate != "" && r.EndDateParsed.Before(r.StartDateParsed) {
		return badRequest("end_date must be greater than or equal to start_date.")
	}

	if r.QualityThreshold != "" {
		g, err := quality.ParseGrade(r.QualityThreshold)
		if err != nil {
			return badRequest("Invalid quality_threshold value.")
		}
		r.MinQuality = &g
	}

	return nil
}

// Filter converts the validated request into a storage filter
func (r *FilterRequest) Filter() storage.Filter {
	f := storage.Filter{
		LocationID: r.LocationIDParsed,
		Metric:     r.Metric,
		StartDate:  r.StartDateParsed,
		EndDate:    r.EndDateParsed,
	}
	if r.MinQuality != nil {
		f.Qualities = quality.AtLeast(*r.MinQuality)
	}
	return f
}

// CacheParams returns the normalized parameters used in cache keys
func (r *FilterRequest) CacheParams() map[string]string {
	params := map[string]string{
		"location_id": r.LocationID,
		"start_date":  r.StartDate,
		"end_date":    r.EndDate,
		"metric":      strings.ToLower(r.Metric),
	}
	if r.LocationIDParsed > 0 {
		params["location_id"] = strconv.FormatInt(r.LocationIDParsed, 10)
	}
	if r.MinQuality != nil {
		params["quality_threshold"] = r.MinQuality.String()
	}
	return params
}

// ClimateRequest is the paginated record listing request
type ClimateRequest struct {
	*FilterRequest
	Page    string
	PerPage string

	PageParsed    int
	PerPageParsed int
}

// NewClimateRequest creates a ClimateRequest from raw query values
func NewClimateRequest(filter *FilterRequest, page, perPage string) *ClimateRequest {
	return &ClimateRequest{
		FilterRequest: filter,
		Page:          strings.TrimSpace(page),
		PerPage:       strings.TrimSpace(perPage),
	}
}

// Validate validates the filter and the pagination parameters
func (r *ClimateRequest) Validate() error {
	if err := r.FilterRequest.Validate(); err != nil {
		return err
	}

	r.PageParsed = utils.DefaultPage
	if r.Page != "" {
		p, ok := positiveInt(r.Page)
		if !ok {
			return badRequest("page must be a positive integer.")
		}
		r.PageParsed = int(p)
	}

	r.PerPageParsed = utils.DefaultPerPage
	if r.PerPage != "" {
		p, ok := positiveInt(r.PerPage)
		if !ok {
			return badRequest("per_page must be a positive integer.")
		}
		if p > utils.MaxPerPage {
			return badRequest("per_page must not exceed " + strconv.Itoa(utils.MaxPerPage) + ".")
		}
		r.PerPageParsed = int(p)
	}

	return nil
}

// PageRequest returns the storage page
func (r *ClimateRequest) PageRequest() storage.Page {
	return storage.Page{Number: r.PageParsed, PerPage: r.PerPageParsed}
}

func positiveInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func badRequest(message string) error {
	return &fiber.Error{Code: fiber.StatusBadRequest, Message: message}
}
