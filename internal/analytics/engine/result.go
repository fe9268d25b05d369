package engine

import (
	"github.com/ecovision/climate-analytics/internal/analytics"
	"github.com/ecovision/climate-analytics/internal/analytics/quality"
)

// MetricSummary is the weighted-mode result for one metric.
type MetricSummary struct {
	Metric              string                    `json:"-"`
	Min                 float64                   `json:"min"`
	Max                 float64                   `json:"max"`
	Avg                 float64                   `json:"avg"`
	WeightedAvg         float64                   `json:"weighted_avg"`
	Count               int                       `json:"count"`
	Unit                string                    `json:"unit"`
	QualityDistribution map[quality.Grade]float64 `json:"quality_distribution"`
	Err                 error                     `json:"-"`
}

// TrendInfo describes the fitted linear trend. Direction, Rate and Confidence are
// null when fewer than two distinct days are available.
type TrendInfo struct {
	Direction  *analytics.Direction `json:"direction"`
	Rate       *float64             `json:"rate"`
	Unit       string               `json:"unit"`
	Confidence *float64             `json:"confidence"`
}

// AnomalyInfo is one flagged observation.
type AnomalyInfo struct {
	Date      string        `json:"date"`
	Value     float64       `json:"value"`
	Deviation float64       `json:"deviation"`
	Quality   quality.Grade `json:"quality"`
}

// SeasonPattern is the average and local trend of one seasonal bucket.
type SeasonPattern struct {
	Avg   float64             `json:"avg"`
	Trend analytics.Direction `json:"trend"`
}

// SeasonalityInfo reports the detected cycle, if any.
type SeasonalityInfo struct {
	Detected   bool                     `json:"detected"`
	Period     *string                  `json:"period"`
	Confidence *float64                 `json:"confidence"`
	Pattern    map[string]SeasonPattern `json:"pattern"`
}

// MetricTrend is the trend-mode result for one metric.
type MetricTrend struct {
	Metric      string          `json:"-"`
	Trend       TrendInfo       `json:"trend"`
	Anomalies   []AnomalyInfo   `json:"anomalies"`
	Seasonality SeasonalityInfo `json:"seasonality"`
	Err         error           `json:"-"`
}
