package summary

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/ecovision/climate-analytics/internal/analytics"
	"github.com/ecovision/climate-analytics/internal/analytics/quality"
)

func obs(day string, value float64, g quality.Grade) analytics.Observation {
	d, _ := time.Parse("2006-01-02", day)
	return analytics.Observation{Date: d, Value: value, Quality: g}
}

func TestCalculate_ThreePointScenario(t *testing.T) {
	series := analytics.Series{
		obs("2023-01-01", 10.0, quality.Good),
		obs("2023-02-01", 12.0, quality.Excellent),
		obs("2023-03-01", 14.0, quality.Poor),
	}

	res, err := Calculate(series, quality.DefaultWeights())
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	if res.Min != 10 || res.Max != 14 {
		t.Errorf("min/max = %v/%v, want 10/14", res.Min, res.Max)
	}
	if math.Abs(res.Mean-12) > 1e-12 {
		t.Errorf("mean = %v, want 12", res.Mean)
	}

	want := (10*0.8 + 12*1.0 + 14*0.3) / (0.8 + 1.0 + 0.3)
	if math.Abs(res.WeightedMean-want) > 1e-9 {
		t.Errorf("weighted mean = %v, want %v", res.WeightedMean, want)
	}
	if res.Count != 3 {
		t.Errorf("count = %d", res.Count)
	}
}

func TestCalculate_DistributionIsWeightMass(t *testing.T) {
	series := analytics.Series{
		obs("2023-01-01", 1, quality.Excellent),
		obs("2023-01-02", 1, quality.Poor),
	}

	res, err := Calculate(series, quality.DefaultWeights())
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	if got := res.QualityDistribution[quality.Excellent]; math.Abs(got-1.0/1.3) > 1e-12 {
		t.Errorf("excellent share = %v, want %v", got, 1.0/1.3)
	}
	if _, ok := res.QualityDistribution[quality.Good]; ok {
		t.Error("absent grade should not appear in distribution")
	}
}

func TestCalculate_DistributionSumsToOne(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(200)
		series := make(analytics.Series, n)
		for i := range series {
			series[i] = analytics.Observation{
				Date:    base.AddDate(0, 0, rng.Intn(1000)),
				Value:   rng.NormFloat64() * 20,
				Quality: quality.All[rng.Intn(len(quality.All))],
			}
		}

		res, err := Calculate(series, quality.DefaultWeights())
		if err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}
		total := 0.0
		for _, share := range res.QualityDistribution {
			total += share
		}
		if math.Abs(total-1) > 1e-9 {
			t.Fatalf("trial %d: distribution sums to %v", trial, total)
		}
	}
}

func TestCalculate_EmptyInput(t *testing.T) {
	res, err := Calculate(nil, quality.DefaultWeights())
	if !errors.Is(err, analytics.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if res != nil {
		t.Error("empty input must not produce a result")
	}
}

func TestCalculate_InvalidGrade(t *testing.T) {
	series := analytics.Series{
		obs("2023-01-01", 1, quality.Good),
		{Date: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), Value: 2, Quality: quality.Grade(42)},
	}

	_, err := Calculate(series, quality.DefaultWeights())
	if !errors.Is(err, quality.ErrInvalidQualityGrade) {
		t.Errorf("expected ErrInvalidQualityGrade, got %v", err)
	}
}

func TestCalculate_OrderIndependent(t *testing.T) {
	series := analytics.Series{
		obs("2023-01-03", 0.1, quality.Good),
		obs("2023-01-01", 0.7, quality.Questionable),
		obs("2023-01-02", 0.2, quality.Excellent),
		obs("2023-01-05", 1e-17, quality.Poor),
		obs("2023-01-04", 3.3, quality.Good),
	}
	reversed := make(analytics.Series, len(series))
	for i := range series {
		reversed[len(series)-1-i] = series[i]
	}

	a, err := Calculate(series, quality.DefaultWeights())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Calculate(reversed, quality.DefaultWeights())
	if err != nil {
		t.Fatal(err)
	}

	if a.Mean != b.Mean || a.WeightedMean != b.WeightedMean {
		t.Errorf("results differ with input order: %+v vs %+v", a, b)
	}
	for g, share := range a.QualityDistribution {
		if b.QualityDistribution[g] != share {
			t.Errorf("distribution for %s differs: %v vs %v", g, share, b.QualityDistribution[g])
		}
	}
}

func TestCalculate_CustomWeights(t *testing.T) {
	weights, err := quality.NewWeights(map[string]float64{
		"excellent": 1, "good": 0.5, "questionable": 0.25, "poor": 0.125,
	})
	if err != nil {
		t.Fatal(err)
	}

	series := analytics.Series{
		obs("2023-01-01", 0, quality.Excellent),
		obs("2023-01-02", 10, quality.Good),
	}

	res, err := Calculate(series, weights)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.WeightedMean-5.0/1.5) > 1e-12 {
		t.Errorf("weighted mean = %v", res.WeightedMean)
	}
}
