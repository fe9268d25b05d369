package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/ecovision/climate-analytics/internal/analytics/anomaly"
	"github.com/ecovision/climate-analytics/internal/analytics/engine"
	"github.com/ecovision/climate-analytics/internal/analytics/quality"
	"github.com/ecovision/climate-analytics/internal/analytics/seasonality"
	"github.com/ecovision/climate-analytics/internal/analytics/trend"
)

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Logging.Level == "info" && c.Logging.Format == "json"
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.HTTPPort))
}

// ConnString returns the PostgreSQL connection string
func (c *PostgresConfig) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else if c.User != "" {
		u.User = url.User(c.User)
	}

	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if c.MaxConns > 0 {
		q.Set("pool_max_conns", strconv.Itoa(int(c.MaxConns)))
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// EngineConfig converts the analytics section into a validated engine configuration
func (c *AnalyticsConfig) EngineConfig() (engine.Config, error) {
	cfg := engine.DefaultConfig()

	if len(c.Weights) > 0 {
		weights, err := quality.NewWeights(c.Weights)
		if err != nil {
			return engine.Config{}, fmt.Errorf("weights: %w", err)
		}
		cfg.Weights = weights
	}

	cfg.Anomaly = anomaly.DetectorConfig{
		Threshold:     c.AnomalyThreshold,
		MinDataPoints: anomaly.DefaultConfig().MinDataPoints,
	}
	cfg.Trend = trend.Config{
		RelativeTolerance: c.TrendRelativeTolerance,
		AbsoluteTolerance: c.TrendAbsoluteTolerance,
	}
	cfg.Seasonality = seasonality.Config{
		Granularity:       seasonality.Granularity(c.SeasonalityGranularity),
		Threshold:         c.SeasonalityThreshold,
		RelativeTolerance: c.TrendRelativeTolerance,
		AbsoluteTolerance: c.TrendAbsoluteTolerance,
	}

	if err := cfg.Anomaly.Validate(); err != nil {
		return engine.Config{}, err
	}
	if err := cfg.Trend.Validate(); err != nil {
		return engine.Config{}, err
	}
	if err := cfg.Seasonality.Validate(); err != nil {
		return engine.Config{}, err
	}

	return cfg, nil
}
