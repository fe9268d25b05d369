// Package quality defines the ordered data-quality grades attached to climate
// observations and the weights used to discount lower-trust measurements.
package quality

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQualityGrade is returned for any grade outside the closed set.
var ErrInvalidQualityGrade = errors.New("invalid quality grade")

// Grade is an ordered data-trust category. Lower numeric value means higher trust.
type Grade int

const (
	Excellent Grade = iota
	Good
	Questionable
	Poor
)

// All lists the grades from most to least trusted.
var All = []Grade{Excellent, Good, Questionable, Poor}

var gradeNames = [...]string{"excellent", "good", "questionable", "poor"}

// String returns the lower-case grade name used on the wire.
func (g Grade) String() string {
	if !g.Valid() {
		return fmt.Sprintf("grade(%d)", int(g))
	}
	return gradeNames[g]
}

// Valid reports whether g belongs to the closed set.
func (g Grade) Valid() bool {
	return g >= Excellent && g <= Poor
}

// Rank returns the sort rank (0 = excellent).
func (g Grade) Rank() int {
	return int(g)
}

// ParseGrade converts a grade name (case-insensitive) into a Grade.
func ParseGrade(s string) (Grade, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range gradeNames {
		if n == name {
			return Grade(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidQualityGrade, s)
}

// MarshalText implements encoding.TextMarshaler so grades can key JSON maps.
func (g Grade) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQualityGrade, int(g))
	}
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grade) UnmarshalText(text []byte) error {
	parsed, err := ParseGrade(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// AtLeast returns min and every grade more trusted than it, best first.
func AtLeast(min Grade) []Grade {
	if !min.Valid() {
		return nil
	}
	grades := make([]Grade, 0, int(min)+1)
	for _, g := range All {
		if g <= min {
			grades = append(grades, g)
		}
	}
	return grades
}

// Weights maps every grade to a weight in (0, 1]. The zero value is not usable;
// build one with DefaultWeights or NewWeights.
type Weights struct {
	w     [len(gradeNames)]float64
	valid bool
}

// DefaultWeights returns the standard weight table.
func DefaultWeights() Weights {
	return Weights{
		w:     [len(gradeNames)]float64{1.0, 0.8, 0.5, 0.3},
		valid: true,
	}
}

// NewWeights builds a weight table from grade names to weights. Every grade must be
// present, each weight must lie in (0, 1], and weights must strictly decrease from
// excellent to poor.
func NewWeights(byName map[string]float64) (Weights, error) {
	var out Weights
	seen := 0
	for name, weight := range byName {
		g, err := ParseGrade(name)
		if err != nil {
			return Weights{}, err
		}
		out.w[g] = weight
		seen++
	}
	if seen != len(gradeNames) {
		return Weights{}, fmt.Errorf("weights must define all %d grades, got %d", len(gradeNames), seen)
	}
	for i, weight := range out.w {
		if weight <= 0 || weight > 1 {
			return Weights{}, fmt.Errorf("weight for %s must be in (0, 1], got %g", Grade(i), weight)
		}
		if i > 0 && weight >= out.w[i-1] {
			return Weights{}, fmt.Errorf("weight for %s (%g) must be lower than %s (%g)",
				Grade(i), weight, Grade(i-1), out.w[i-1])
		}
	}
	out.valid = true
	return out, nil
}

// WeightOf returns the weight for g.
func (w Weights) WeightOf(g Grade) (float64, error) {
	if !g.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQualityGrade, int(g))
	}
	if !w.valid {
		return 0, errors.New("weights table is not initialised")
	}
	return w.w[g], nil
}

// Map returns a copy of the table keyed by grade name.
func (w Weights) Map() map[string]float64 {
	out := make(map[string]float64, len(gradeNames))
	for i, name := range gradeNames {
		out[name] = w.w[i]
	}
	return out
}
