// Package engine assembles the per-metric analytics results served by the API.
// It converts raw rows into typed observations, runs the summary, trend, anomaly
// and seasonality components and shapes their output for JSON encoding.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/ecovision/climate-analytics/internal/analytics"
	"github.com/ecovision/climate-analytics/internal/analytics/anomaly"
	"github.com/ecovision/climate-analytics/internal/analytics/quality"
	"github.com/ecovision/climate-analytics/internal/analytics/seasonality"
	"github.com/ecovision/climate-analytics/internal/analytics/summary"
	"github.com/ecovision/climate-analytics/internal/analytics/trend"
)

// Config bundles the settings of every analytics component.
type Config struct {
	Weights     quality.Weights
	Anomaly     anomaly.DetectorConfig
	Trend       trend.Config
	Seasonality seasonality.Config
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() Config {
	return Config{
		Weights:     quality.DefaultWeights(),
		Anomaly:     anomaly.DefaultConfig(),
		Trend:       trend.DefaultConfig(),
		Seasonality: seasonality.DefaultConfig(),
	}
}

// Engine runs analytics over already-filtered metric data. It holds only read-only
// configuration and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// New validates the configuration and returns an engine.
func New(cfg Config) (*Engine, error) {
	if _, err := cfg.Weights.WeightOf(quality.Excellent); err != nil {
		return nil, fmt.Errorf("invalid quality weights: %w", err)
	}
	if err := cfg.Anomaly.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Trend.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Seasonality.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Row is one stored observation before its grade has been parsed.
type Row struct {
	Date    time.Time
	Value   float64
	Quality string
}

// MetricInput is the filtered observation window for one metric.
type MetricInput struct {
	Name string
	Unit string
	Rows []Row
}

// Series parses the rows into an observation series. An unknown grade fails the
// whole metric with quality.ErrInvalidQualityGrade.
func (m MetricInput) Series() (analytics.Series, error) {
	series := make(analytics.Series, 0, len(m.Rows))
	for _, r := range m.Rows {
		g, err := quality.ParseGrade(r.Quality)
		if err != nil {
			return nil, fmt.Errorf("metric %s on %s: %w", m.Name, r.Date.Format(dateLayout), err)
		}
		series = append(series, analytics.Observation{Date: r.Date, Value: r.Value, Quality: g})
	}
	return series, nil
}

const dateLayout = "2006-01-02"

// Summarize computes the weighted summary for one metric.
func (e *Engine) Summarize(m MetricInput) MetricSummary {
	out := MetricSummary{Metric: m.Name, Unit: m.Unit}

	series, err := m.Series()
	if err != nil {
		out.Err = err
		return out
	}

	res, err := summary.Calculate(series, e.cfg.Weights)
	if err != nil {
		out.Err = fmt.Errorf("metric %s: %w", m.Name, err)
		return out
	}

	out.Min = res.Min
	out.Max = res.Max
	out.Avg = res.Mean
	out.WeightedAvg = res.WeightedMean
	out.Count = res.Count
	out.QualityDistribution = res.QualityDistribution
	return out
}

// Trends runs trend estimation, anomaly detection and seasonality decomposition
// concurrently for one metric and assembles the combined result once all three are
// done. A series too short for a trend still produces a well-formed result with
// null trend fields.
func (e *Engine) Trends(m MetricInput) MetricTrend {
	out := MetricTrend{
		Metric:    m.Name,
		Trend:     TrendInfo{Unit: rateUnit(m.Unit)},
		Anomalies: []AnomalyInfo{},
		Seasonality: SeasonalityInfo{
			Pattern: map[string]SeasonPattern{},
		},
	}

	series, err := m.Series()
	if err != nil {
		out.Err = err
		return out
	}

	var (
		wg        sync.WaitGroup
		trendRes  trend.Result
		anomalies []anomaly.Anomaly
		seasonRes seasonality.Result
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		trendRes = trend.Estimate(series, e.cfg.Trend)
	}()
	go func() {
		defer wg.Done()
		anomalies = anomaly.Detect(series, e.cfg.Anomaly)
	}()
	go func() {
		defer wg.Done()
		seasonRes = seasonality.Decompose(series, e.cfg.Seasonality)
	}()
	wg.Wait()

	out.Trend.Direction = trendRes.Direction
	out.Trend.Rate = trendRes.Rate
	out.Trend.Confidence = trendRes.Confidence

	for _, a := range anomalies {
		out.Anomalies = append(out.Anomalies, AnomalyInfo{
			Date:      a.Date.Format(dateLayout),
			Value:     a.Value,
			Deviation: a.Deviation,
			Quality:   a.Quality,
		})
	}

	if seasonRes.Detected {
		period := seasonRes.Period
		out.Seasonality.Detected = true
		out.Seasonality.Period = &period
		out.Seasonality.Confidence = seasonRes.Confidence
		for label, p := range seasonRes.Pattern {
			out.Seasonality.Pattern[label] = SeasonPattern{Avg: p.Avg, Trend: p.Trend}
		}
	}

	return out
}

// SummarizeAll summarises every metric in parallel, one goroutine per metric.
// Failures are recorded on the affected metric only.
func (e *Engine) SummarizeAll(metrics []MetricInput) map[string]MetricSummary {
	results := make([]MetricSummary, len(metrics))
	var wg sync.WaitGroup
	for i := range metrics {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Summarize(metrics[i])
		}(i)
	}
	wg.Wait()

	out := make(map[string]MetricSummary, len(results))
	for _, r := range results {
		out[r.Metric] = r
	}
	return out
}

// TrendsAll runs Trends for every metric in parallel.
func (e *Engine) TrendsAll(metrics []MetricInput) map[string]MetricTrend {
	results := make([]MetricTrend, len(metrics))
	var wg sync.WaitGroup
	for i := range metrics {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Trends(metrics[i])
		}(i)
	}
	wg.Wait()

	out := make(map[string]MetricTrend, len(results))
	for _, r := range results {
		out[r.Metric] = r
	}
	return out
}

func rateUnit(unit string) string {
	if unit == "" {
		return ""
	}
	return unit + "/month"
}
