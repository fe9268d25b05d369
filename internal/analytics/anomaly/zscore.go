// Package anomaly flags observations that deviate from the series mean by more than
// a configured number of standard deviations.
package anomaly

import (
	"math"

	"github.com/ecovision/climate-analytics/internal/analytics"
)

// Detect finds anomalies using the Z-Score method.
//
// The mean is the unweighted arithmetic mean and σ the sample standard deviation of
// every value. With fewer than MinDataPoints points, or σ == 0, nothing is flagged.
// Results are in chronological order.
func Detect(series analytics.Series, config DetectorConfig) []Anomaly {
	minPoints := config.MinDataPoints
	if minPoints < 2 {
		minPoints = 2
	}
	if len(series) < minPoints {
		return nil
	}

	sorted := series.Sorted()
	values := sorted.Values()

	mean := analytics.Mean(values)
	stdDev := analytics.StdDev(values)

	// Every value equals the mean
	if stdDev == 0 {
		return nil
	}

	var results []Anomaly
	for _, o := range sorted {
		deviation := math.Abs(CalculateZScore(o.Value, mean, stdDev))
		if deviation > config.Threshold {
			results = append(results, Anomaly{
				Date:      o.Date,
				Value:     o.Value,
				Quality:   o.Quality,
				Deviation: deviation,
			})
		}
	}

	return results
}

// CalculateZScore calculates Z-Score for a single value given mean and stdDev
func CalculateZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (value - mean) / stdDev
}
