package anomaly

import (
	"fmt"
	"time"

	"github.com/ecovision/climate-analytics/internal/analytics/quality"
)

// MinThreshold is the lowest allowed detection threshold in standard deviations.
const MinThreshold = 2.0

// Severity bands a deviation for display. The detector itself reports only the
// raw deviation; consumers may band it however they like.
type Severity string

const (
	SeverityModerate Severity = "moderate" // between 2σ and 3σ
	SeveritySevere   Severity = "severe"   // above 3σ
)

// Anomaly is an observation whose value lies unusually far from the series mean.
type Anomaly struct {
	Date    time.Time
	Value   float64
	Quality quality.Grade
	// Deviation is |value - mean| in sample standard deviations.
	Deviation float64
}

// Severity returns the display band for the anomaly.
func (a Anomaly) Severity() Severity {
	return SeverityOf(a.Deviation)
}

// SeverityOf returns the display band for a deviation.
func SeverityOf(deviation float64) Severity {
	if deviation > 3 {
		return SeveritySevere
	}
	return SeverityModerate
}

// DetectorConfig holds configuration for anomaly detection
type DetectorConfig struct {
	// Threshold in standard deviations; a point is flagged when its deviation is
	// strictly greater.
	Threshold float64

	// MinDataPoints minimum number of points required for detection
	MinDataPoints int
}

// DefaultConfig returns default detector configuration
func DefaultConfig() DetectorConfig {
	return DetectorConfig{
		Threshold:     3.0, // 3 standard deviations
		MinDataPoints: 2,   // sample std dev needs at least 2 points
	}
}

// Validate checks the threshold bounds.
func (c DetectorConfig) Validate() error {
	if c.Threshold < MinThreshold {
		return fmt.Errorf("anomaly threshold must be at least %.1f standard deviations, got %g", MinThreshold, c.Threshold)
	}
	if c.MinDataPoints < 2 {
		return fmt.Errorf("anomaly min data points must be at least 2, got %d", c.MinDataPoints)
	}
	return nil
}
