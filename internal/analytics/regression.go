package analytics

import "math"

// Direction is the sign of a fitted trend.
type Direction string

const (
	Increasing Direction = "increasing"
	Decreasing Direction = "decreasing"
	Stable     Direction = "stable"
)

// Classify maps a slope to a direction; |slope| <= epsilon is stable.
func Classify(slope, epsilon float64) Direction {
	switch {
	case slope > epsilon:
		return Increasing
	case slope < -epsilon:
		return Decreasing
	default:
		return Stable
	}
}

// Tolerance returns the stable-band half width for a series: relative times the mean
// absolute value, falling back to floor when the series is all zeros.
func Tolerance(values []float64, relative, floor float64) float64 {
	if len(values) == 0 {
		return floor
	}
	sum := 0.0
	for _, v := range values {
		sum += math.Abs(v)
	}
	eps := relative * sum / float64(len(values))
	if eps <= 0 {
		return floor
	}
	return eps
}

// Fit is the result of an ordinary least-squares line fit.
type Fit struct {
	Slope     float64
	Intercept float64
	// RSquared is the coefficient of determination in [0, 1]. A series with no
	// variance is a perfect fit to a constant and reports 1.
	RSquared float64
	N        int
}

// LinearFit fits ys = intercept + slope*xs. ok is false when there are fewer than
// two distinct x values.
func LinearFit(xs, ys []float64) (Fit, bool) {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return Fit{N: n}, false
	}

	meanX, meanY := Mean(xs), Mean(ys)

	// Centered sums keep the fit stable when x is large (months since epoch etc).
	var sxx, sxy, syy float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	if sxx == 0 {
		return Fit{N: n}, false
	}

	slope := sxy / sxx
	fit := Fit{
		Slope:     slope,
		Intercept: meanY - slope*meanX,
		N:         n,
	}

	if syy == 0 {
		fit.RSquared = 1
		return fit, true
	}

	var sse float64
	for i := range xs {
		r := ys[i] - (fit.Intercept + slope*xs[i])
		sse += r * r
	}
	fit.RSquared = Clamp01(1 - sse/syy)
	return fit, true
}
