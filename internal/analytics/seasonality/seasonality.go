// Package seasonality detects recurring patterns tied to calendar buckets
// (seasons or months) and reports a per-bucket average and local trend.
package seasonality

import (
	"fmt"

	"github.com/ecovision/climate-analytics/internal/analytics"
)

// Config holds configuration for seasonality detection
type Config struct {
	Granularity Granularity

	// Threshold is the minimum share of variance explained by bucket membership
	// (η² = SS_between / SS_total) for the pattern to count as detected.
	Threshold float64

	// RelativeTolerance and AbsoluteTolerance define each bucket's stable band for
	// its local trend, using the same rule as the series trend.
	RelativeTolerance float64
	AbsoluteTolerance float64
}

// DefaultConfig returns default seasonality configuration
func DefaultConfig() Config {
	return Config{
		Granularity:       BySeason,
		Threshold:         0.3,
		RelativeTolerance: 0.001,
		AbsoluteTolerance: 1e-9,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if _, err := BucketsFor(c.Granularity); err != nil {
		return err
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("seasonality threshold must be in (0, 1], got %g", c.Threshold)
	}
	if c.RelativeTolerance < 0 || c.AbsoluteTolerance < 0 {
		return fmt.Errorf("seasonality tolerances must be non-negative")
	}
	return nil
}

// BucketPattern summarises one bucket across all cycles in range.
type BucketPattern struct {
	Avg   float64
	Trend analytics.Direction
	Count int
}

// Result is the outcome of seasonality detection. When Detected is false, Period
// is empty, Confidence nil and Pattern empty.
type Result struct {
	Detected   bool
	Period     string
	Confidence *float64
	Pattern    map[string]BucketPattern
	// Ratio is the explained-variance ratio even when nothing is detected.
	Ratio float64
}

// cycleSpanMonths is the minimum distance in months between the first and last
// observation for a series to count as one full yearly cycle. Monthly samples
// from January through December span exactly 11.
const cycleSpanMonths = 11.0

// Decompose groups the series into buckets and tests whether bucket membership
// explains enough of the variance. Insufficient data is a normal outcome and
// yields Detected=false.
func Decompose(series analytics.Series, cfg Config) Result {
	buckets, err := BucketsFor(cfg.Granularity)
	if err != nil || len(series) == 0 {
		return Result{}
	}

	sorted := series.Sorted()
	origin := sorted[0].Date

	type group struct {
		xs, ys []float64
	}
	groups := make(map[string]*group, len(buckets.Labels))
	for _, o := range sorted {
		label := buckets.Of(o.Date)
		g, ok := groups[label]
		if !ok {
			g = &group{}
			groups[label] = g
		}
		g.xs = append(g.xs, analytics.MonthsBetween(origin, o.Date))
		g.ys = append(g.ys, o.Value)
	}

	grandMean := sorted.Mean()
	var ssTotal, ssBetween float64
	for _, o := range sorted {
		d := o.Value - grandMean
		ssTotal += d * d
	}
	// Iterate labels in calendar order so the sum is deterministic.
	for _, label := range buckets.Labels {
		g, ok := groups[label]
		if !ok {
			continue
		}
		d := analytics.Mean(g.ys) - grandMean
		ssBetween += float64(len(g.ys)) * d * d
	}

	ratio := 0.0
	if ssTotal > 0 {
		ratio = analytics.Clamp01(ssBetween / ssTotal)
	}

	span := analytics.MonthsBetween(origin, sorted[len(sorted)-1].Date)
	fullCycle := len(groups) == len(buckets.Labels) && span >= cycleSpanMonths
	enoughPoints := len(sorted) > len(buckets.Labels)
	if !fullCycle || !enoughPoints || ssTotal == 0 || ratio < cfg.Threshold {
		return Result{Ratio: ratio}
	}

	pattern := make(map[string]BucketPattern, len(groups))
	for _, label := range buckets.Labels {
		g := groups[label]
		p := BucketPattern{
			Avg:   analytics.Mean(g.ys),
			Trend: analytics.Stable,
			Count: len(g.ys),
		}
		if fit, ok := analytics.LinearFit(g.xs, g.ys); ok {
			eps := analytics.Tolerance(g.ys, cfg.RelativeTolerance, cfg.AbsoluteTolerance)
			p.Trend = analytics.Classify(fit.Slope, eps)
		}
		pattern[label] = p
	}

	confidence := ratio
	return Result{
		Detected:   true,
		Period:     buckets.Period,
		Confidence: &confidence,
		Pattern:    pattern,
		Ratio:      ratio,
	}
}
