package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecovision/climate-analytics/internal/analytics"
	"github.com/ecovision/climate-analytics/internal/analytics/anomaly"
	"github.com/ecovision/climate-analytics/internal/analytics/quality"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultConfig())
	require.NoError(t, err)
	return e
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func monthlyRows(months int, value func(i int, d time.Time) float64) []Row {
	start := day("2020-01-01")
	rows := make([]Row, months)
	for i := range rows {
		d := start.AddDate(0, i, 0)
		rows[i] = Row{Date: d, Value: value(i, d), Quality: "good"}
	}
	return rows
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = quality.Weights{}
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Anomaly = anomaly.DetectorConfig{Threshold: 1, MinDataPoints: 2}
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestSummarize_Scenario(t *testing.T) {
	e := newTestEngine(t)

	res := e.Summarize(MetricInput{
		Name: "temperature",
		Unit: "celsius",
		Rows: []Row{
			{Date: day("2023-03-01"), Value: 14.0, Quality: "poor"},
			{Date: day("2023-01-01"), Value: 10.0, Quality: "good"},
			{Date: day("2023-02-01"), Value: 12.0, Quality: "Excellent"},
		},
	})

	require.NoError(t, res.Err)
	assert.Equal(t, 10.0, res.Min)
	assert.Equal(t, 14.0, res.Max)
	assert.InDelta(t, 12.0, res.Avg, 1e-12)
	assert.InDelta(t, (10*0.8+12*1.0+14*0.3)/(0.8+1.0+0.3), res.WeightedAvg, 1e-9)
	assert.Equal(t, "celsius", res.Unit)

	var total float64
	for _, share := range res.QualityDistribution {
		total += share
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestSummarize_InvalidGrade(t *testing.T) {
	e := newTestEngine(t)

	res := e.Summarize(MetricInput{
		Name: "rainfall",
		Rows: []Row{{Date: day("2023-01-01"), Value: 3, Quality: "unverified"}},
	})
	assert.True(t, errors.Is(res.Err, quality.ErrInvalidQualityGrade))
}

func TestSummarize_Empty(t *testing.T) {
	e := newTestEngine(t)
	res := e.Summarize(MetricInput{Name: "humidity"})
	assert.True(t, errors.Is(res.Err, analytics.ErrEmptyInput))
}

func TestTrends_Combined(t *testing.T) {
	e := newTestEngine(t)

	rows := monthlyRows(36, func(i int, d time.Time) float64 {
		v := 10 + 0.05*float64(i)
		if d.Month() >= time.June && d.Month() <= time.August {
			v += 10
		}
		return v
	})
	rows[20].Value = 40 // September 2021
	rows[20].Quality = "questionable"

	res := e.Trends(MetricInput{Name: "temperature", Unit: "celsius", Rows: rows})

	require.NoError(t, res.Err)
	require.NotNil(t, res.Trend.Direction)
	assert.Equal(t, analytics.Increasing, *res.Trend.Direction)
	assert.Equal(t, "celsius/month", res.Trend.Unit)
	require.NotNil(t, res.Trend.Confidence)

	require.Len(t, res.Anomalies, 1)
	assert.Equal(t, rows[20].Date.Format("2006-01-02"), res.Anomalies[0].Date)
	assert.Equal(t, quality.Questionable, res.Anomalies[0].Quality)

	assert.True(t, res.Seasonality.Detected)
	require.NotNil(t, res.Seasonality.Period)
	assert.Equal(t, "quarterly", *res.Seasonality.Period)
	assert.Len(t, res.Seasonality.Pattern, 4)
	assert.Greater(t, res.Seasonality.Pattern["summer"].Avg, res.Seasonality.Pattern["winter"].Avg)
}

func TestTrends_UnavailableIsWellFormed(t *testing.T) {
	e := newTestEngine(t)

	res := e.Trends(MetricInput{
		Name: "rainfall",
		Unit: "mm",
		Rows: []Row{{Date: day("2023-01-01"), Value: 3, Quality: "good"}},
	})
	require.NoError(t, res.Err)

	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded struct {
		Trend       map[string]any `json:"trend"`
		Anomalies   []any          `json:"anomalies"`
		Seasonality map[string]any `json:"seasonality"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	trendObj := decoded.Trend
	assert.Contains(t, trendObj, "direction")
	assert.Nil(t, trendObj["direction"])
	assert.Nil(t, trendObj["rate"])
	assert.Nil(t, trendObj["confidence"])
	assert.Equal(t, "mm/month", trendObj["unit"])

	season := decoded.Seasonality
	assert.Equal(t, false, season["detected"])
	assert.Nil(t, season["period"])
	assert.Equal(t, map[string]any{}, season["pattern"])

	assert.NotNil(t, decoded.Anomalies)
	assert.Empty(t, decoded.Anomalies)
}

func TestTrends_ConstantSeries(t *testing.T) {
	e := newTestEngine(t)

	res := e.Trends(MetricInput{
		Name: "humidity",
		Rows: monthlyRows(12, func(int, time.Time) float64 { return 55 }),
	})

	require.NotNil(t, res.Trend.Direction)
	assert.Equal(t, analytics.Stable, *res.Trend.Direction)
	assert.InDelta(t, 1.0, *res.Trend.Confidence, 1e-12)
	assert.Empty(t, res.Anomalies)
	assert.False(t, res.Seasonality.Detected)
}

func TestTrendsAll_IsolatesFailures(t *testing.T) {
	e := newTestEngine(t)

	good := MetricInput{
		Name: "temperature",
		Rows: monthlyRows(24, func(i int, _ time.Time) float64 { return float64(i) }),
	}
	bad := MetricInput{
		Name: "rainfall",
		Rows: []Row{
			{Date: day("2023-01-01"), Value: 1, Quality: "good"},
			{Date: day("2023-01-02"), Value: 2, Quality: "bogus"},
		},
	}

	out := e.TrendsAll([]MetricInput{good, bad})

	require.Len(t, out, 2)
	assert.NoError(t, out["temperature"].Err)
	assert.True(t, errors.Is(out["rainfall"].Err, quality.ErrInvalidQualityGrade))
	require.NotNil(t, out["temperature"].Trend.Rate)
	assert.InDelta(t, 1.0, *out["temperature"].Trend.Rate, 1e-9)
}

func TestSummarizeAll_OrderInsensitive(t *testing.T) {
	e := newTestEngine(t)

	metrics := make([]MetricInput, 8)
	for i := range metrics {
		offset := float64(i)
		metrics[i] = MetricInput{
			Name: fmt.Sprintf("metric_%d", i),
			Rows: monthlyRows(10, func(j int, _ time.Time) float64 { return offset + float64(j) }),
		}
	}
	reversed := make([]MetricInput, len(metrics))
	for i := range metrics {
		reversed[len(metrics)-1-i] = metrics[i]
	}

	assert.Equal(t, e.SummarizeAll(metrics), e.SummarizeAll(reversed))
}

func TestMetricSummary_JSONShape(t *testing.T) {
	e := newTestEngine(t)
	res := e.Summarize(MetricInput{
		Name: "temperature",
		Unit: "celsius",
		Rows: []Row{
			{Date: day("2023-01-01"), Value: 1, Quality: "excellent"},
			{Date: day("2023-01-02"), Value: 3, Quality: "excellent"},
		},
	})

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"min":1,"max":3,"avg":2,"weighted_avg":2,"count":2,"unit":"celsius","quality_distribution":{"excellent":1}}`,
		string(raw))
}
