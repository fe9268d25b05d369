// Package analytics provides the shared types and numeric helpers used by the
// climate analytics components (summary, trend, anomaly, seasonality).
package analytics

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/ecovision/climate-analytics/internal/analytics/quality"
)

// ErrEmptyInput signals that the filtered window contains no observations.
// Callers render it as "no data", never as a zero-valued result.
var ErrEmptyInput = errors.New("no observations in the selected window")

// Observation is a single measurement for one location and metric.
type Observation struct {
	Date    time.Time
	Value   float64
	Quality quality.Grade
}

// Series is a collection of observations for one (location, metric) pair.
// Components never assume it is ordered.
type Series []Observation

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Sorted returns a copy ordered by date, then value, then quality rank. The order is
// total so that reruns over shuffled input produce identical output.
func (s Series) Sorted() Series {
	out := make(Series, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Value != b.Value {
			return a.Value < b.Value
		}
		return a.Quality.Rank() < b.Quality.Rank()
	})
	return out
}

// Values extracts just the values from the series
func (s Series) Values() []float64 {
	values := make([]float64, len(s))
	for i, o := range s {
		values[i] = o.Value
	}
	return values
}

// Len returns the number of observations
func (s Series) Len() int {
	return len(s)
}

// Mean calculates the unweighted mean of all values
func (s Series) Mean() float64 {
	return Mean(s.Values())
}

// StdDev calculates the sample standard deviation of all values
func (s Series) StdDev() float64 {
	return StdDev(s.Values())
}

// DailyPoint is one distinct calendar day with the mean of its values.
type DailyPoint struct {
	Date  time.Time
	Value float64
	Count int
}

// DailyMeans collapses observations sharing a day into their average, ordered by day.
func (s Series) DailyMeans() []DailyPoint {
	sorted := s.Sorted()
	points := make([]DailyPoint, 0, len(sorted))
	for _, o := range sorted {
		d := Day(o.Date)
		if n := len(points); n > 0 && points[n-1].Date.Equal(d) {
			points[n-1].Value += o.Value
			points[n-1].Count++
			continue
		}
		points = append(points, DailyPoint{Date: d, Value: o.Value, Count: 1})
	}
	for i := range points {
		points[i].Value /= float64(points[i].Count)
	}
	return points
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the sample (n-1) standard deviation, or 0 with fewer than 2 values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// MonthsBetween returns the continuous number of calendar months from `from` to `to`.
// Whole months are counted on the calendar and the remaining days are scaled by the
// length of their own month, so the first of each month maps to an integer.
func MonthsBetween(from, to time.Time) float64 {
	from, to = Day(from), Day(to)
	whole := float64((to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month()))
	return whole + dayFraction(to) - dayFraction(from)
}

func dayFraction(t time.Time) float64 {
	return float64(t.Day()-1) / float64(daysIn(t.Year(), t.Month()))
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Clamp01 limits v to [0, 1]; NaN becomes 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
