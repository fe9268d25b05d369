// Package trend estimates the long-term linear trend of a climate series.
package trend

import (
	"fmt"

	"github.com/ecovision/climate-analytics/internal/analytics"
)

// Config holds configuration for trend estimation
type Config struct {
	// RelativeTolerance scales the mean absolute value into the stable band: a slope
	// whose magnitude is within RelativeTolerance*mean(|v|) per month is "stable".
	RelativeTolerance float64

	// AbsoluteTolerance is the band used when the series is all zeros.
	AbsoluteTolerance float64
}

// DefaultConfig returns default trend configuration
func DefaultConfig() Config {
	return Config{
		RelativeTolerance: 0.001, // 0.1% of the value scale per month
		AbsoluteTolerance: 1e-9,
	}
}

// Validate checks the tolerances.
func (c Config) Validate() error {
	if c.RelativeTolerance < 0 {
		return fmt.Errorf("trend relative tolerance must be non-negative, got %g", c.RelativeTolerance)
	}
	if c.AbsoluteTolerance < 0 {
		return fmt.Errorf("trend absolute tolerance must be non-negative, got %g", c.AbsoluteTolerance)
	}
	return nil
}

// Result is the fitted trend. When Available is false (fewer than two distinct
// days) Direction, Rate and Confidence are nil.
type Result struct {
	Available  bool
	Direction  *analytics.Direction
	Rate       *float64 // value units per month
	Confidence *float64 // R² of the fit
	Points     int      // distinct days used in the fit
}

// Estimate fits value against elapsed months by ordinary least squares. Observations
// sharing a day are averaged first.
func Estimate(series analytics.Series, cfg Config) Result {
	daily := series.DailyMeans()
	if len(daily) < 2 {
		return Result{Points: len(daily)}
	}

	origin := daily[0].Date
	xs := make([]float64, len(daily))
	ys := make([]float64, len(daily))
	for i, p := range daily {
		xs[i] = analytics.MonthsBetween(origin, p.Date)
		ys[i] = p.Value
	}

	fit, ok := analytics.LinearFit(xs, ys)
	if !ok {
		return Result{Points: len(daily)}
	}

	eps := analytics.Tolerance(ys, cfg.RelativeTolerance, cfg.AbsoluteTolerance)
	direction := analytics.Classify(fit.Slope, eps)
	rate := fit.Slope
	confidence := analytics.Clamp01(fit.RSquared)

	return Result{
		Available:  true,
		Direction:  &direction,
		Rate:       &rate,
		Confidence: &confidence,
		Points:     len(daily),
	}
}
