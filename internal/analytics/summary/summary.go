// Package summary computes quality-weighted statistical summaries of a filtered
// observation window.
package summary

import (
	"errors"
	"fmt"

	"github.com/ecovision/climate-analytics/internal/analytics"
	"github.com/ecovision/climate-analytics/internal/analytics/quality"
)

// ErrZeroWeight is returned when the total quality weight is zero. Validated weight
// tables make this unreachable; the check guards the division.
var ErrZeroWeight = errors.New("total quality weight is zero")

// Result is the weighted summary for one metric.
type Result struct {
	Min          float64
	Max          float64
	Mean         float64
	WeightedMean float64
	Count        int
	// QualityDistribution holds each grade's share of the total weight mass.
	// Grades absent from the window are omitted. Values sum to 1.
	QualityDistribution map[quality.Grade]float64
}

// Calculate summarises the observations. An empty series yields
// analytics.ErrEmptyInput; an observation with an unknown grade yields
// quality.ErrInvalidQualityGrade.
func Calculate(series analytics.Series, weights quality.Weights) (*Result, error) {
	if len(series) == 0 {
		return nil, analytics.ErrEmptyInput
	}

	// Sorting fixes the summation order so results are identical for any input order.
	sorted := series.Sorted()

	var (
		sum, weightedSum, totalWeight float64
		massByGrade                   = make(map[quality.Grade]float64, len(quality.All))
	)

	res := &Result{
		Min:   sorted[0].Value,
		Max:   sorted[0].Value,
		Count: len(sorted),
	}

	for _, o := range sorted {
		w, err := weights.WeightOf(o.Quality)
		if err != nil {
			return nil, fmt.Errorf("observation on %s: %w", o.Date.Format("2006-01-02"), err)
		}
		if o.Value < res.Min {
			res.Min = o.Value
		}
		if o.Value > res.Max {
			res.Max = o.Value
		}
		sum += o.Value
		weightedSum += o.Value * w
		totalWeight += w
		massByGrade[o.Quality] += w
	}

	if totalWeight == 0 {
		return nil, ErrZeroWeight
	}

	res.Mean = sum / float64(len(sorted))
	res.WeightedMean = weightedSum / totalWeight

	res.QualityDistribution = make(map[quality.Grade]float64, len(massByGrade))
	for _, g := range quality.All {
		if mass, ok := massByGrade[g]; ok {
			res.QualityDistribution[g] = mass / totalWeight
		}
	}

	return res, nil
}
