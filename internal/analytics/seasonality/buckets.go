package seasonality

import (
	"fmt"
	"time"
)

// Granularity selects the periodic bucket table.
type Granularity string

const (
	// BySeason groups months into meteorological seasons.
	BySeason Granularity = "season"
	// ByMonth uses one bucket per calendar month.
	ByMonth Granularity = "month"
)

// Buckets is a month -> bucket label lookup table.
type Buckets struct {
	// Period names the cycle granularity reported to consumers.
	Period string
	// Labels lists the buckets in calendar order.
	Labels []string
	byMonth [12]string
}

// Of returns the bucket label for a date.
func (b Buckets) Of(t time.Time) string {
	return b.byMonth[t.Month()-1]
}

// Seasons maps Dec-Feb to winter, Mar-May to spring, Jun-Aug to summer and Sep-Nov to fall.
var Seasons = Buckets{
	Period: "quarterly",
	Labels: []string{"winter", "spring", "summer", "fall"},
	byMonth: [12]string{
		"winter", "winter",
		"spring", "spring", "spring",
		"summer", "summer", "summer",
		"fall", "fall", "fall",
		"winter",
	},
}

// Months has one bucket per calendar month.
var Months = Buckets{
	Period: "monthly",
	Labels: []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"},
	byMonth: [12]string{
		"jan", "feb", "mar", "apr", "may", "jun",
		"jul", "aug", "sep", "oct", "nov", "dec",
	},
}

// BucketsFor returns the table for a granularity.
func BucketsFor(g Granularity) (Buckets, error) {
	switch g {
	case BySeason, "":
		return Seasons, nil
	case ByMonth:
		return Months, nil
	default:
		return Buckets{}, fmt.Errorf("unknown seasonality granularity %q (supported: season, month)", g)
	}
}
