package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ecovision/climate-analytics/internal/analytics/seasonality"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "default config should be valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid http port",
			mutate:  func(c *Config) { c.Server.HTTPPort = 0 },
			wantErr: true,
		},
		{
			name:    "unknown storage driver",
			mutate:  func(c *Config) { c.Storage.Driver = "mysql" },
			wantErr: true,
		},
		{
			name: "postgres without connection details",
			mutate: func(c *Config) {
				c.Storage.Driver = "postgres"
				c.Storage.Postgres.Host = ""
			},
			wantErr: true,
		},
		{
			name: "postgres with dsn",
			mutate: func(c *Config) {
				c.Storage.Driver = "postgres"
				c.Storage.Postgres = PostgresConfig{DSN: "postgres://localhost/climate"}
			},
			wantErr: false,
		},
		{
			name:    "zero cache ttl",
			mutate:  func(c *Config) { c.Cache.TTL = 0 },
			wantErr: true,
		},
		{
			name:    "unknown queue type",
			mutate:  func(c *Config) { c.Queue.Type = "rabbitmq" },
			wantErr: true,
		},
		{
			name:    "anomaly threshold below 2",
			mutate:  func(c *Config) { c.Analytics.AnomalyThreshold = 1.5 },
			wantErr: true,
		},
		{
			name: "weights not decreasing",
			mutate: func(c *Config) {
				c.Analytics.Weights = map[string]float64{"excellent": 0.5, "good": 0.8, "questionable": 0.4, "poor": 0.1}
			},
			wantErr: true,
		},
		{
			name:    "auth enabled without keys",
			mutate:  func(c *Config) { c.Auth.Enabled = true },
			wantErr: true,
		},
		{
			name:    "invalid logging level",
			mutate:  func(c *Config) { c.Logging.Level = "invalid" },
			wantErr: true,
		},
		{
			name:    "zero data version",
			mutate:  func(c *Config) { c.Versions.Data = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.HTTPPort != 5001 {
		t.Errorf("expected HTTPPort 5001, got %d", cfg.Server.HTTPPort)
	}

	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("expected cache TTL 10m, got %v", cfg.Cache.TTL)
	}

	if cfg.RateLimit.AnalyticsPerMinute != 10 {
		t.Errorf("expected 10 analytics requests per minute, got %d", cfg.RateLimit.AnalyticsPerMinute)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  http_port: 8088
analytics:
  anomaly_threshold: 2.5
  seasonality_granularity: month
cache:
  ttl: 1m
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ECOVISION_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTPPort != 8088 {
		t.Errorf("http_port = %d, want 8088", cfg.Server.HTTPPort)
	}
	if cfg.Cache.TTL != time.Minute {
		t.Errorf("cache ttl = %v, want 1m", cfg.Cache.TTL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q, want debug from env", cfg.Logging.Level)
	}
	// untouched sections keep their defaults
	if cfg.Queue.Subject != "ecovision.data.changed" {
		t.Errorf("queue subject = %q", cfg.Queue.Subject)
	}

	ec, err := cfg.Analytics.EngineConfig()
	if err != nil {
		t.Fatalf("EngineConfig failed: %v", err)
	}
	if ec.Anomaly.Threshold != 2.5 {
		t.Errorf("anomaly threshold = %v, want 2.5", ec.Anomaly.Threshold)
	}
	if ec.Seasonality.Granularity != seasonality.ByMonth {
		t.Errorf("granularity = %q, want month", ec.Seasonality.Granularity)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  http_port: 70000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for out-of-range port")
	}
}

func TestConfigHelpers(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.IsProduction() {
		t.Error("default config should be production mode")
	}

	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "console"

	if !cfg.IsDevelopment() {
		t.Error("config with debug/console should be development mode")
	}

	if addr := cfg.GetServerAddress(); addr != "0.0.0.0:5001" {
		t.Errorf("expected '0.0.0.0:5001', got %s", addr)
	}
}

func TestPostgresConnString(t *testing.T) {
	pg := PostgresConfig{
		Host:     "db",
		Port:     5432,
		User:     "eco",
		Password: "secret",
		Database: "climate",
		SSLMode:  "disable",
	}
	want := "postgres://eco:secret@db:5432/climate?sslmode=disable"
	if got := pg.ConnString(); got != want {
		t.Errorf("ConnString() = %q, want %q", got, want)
	}

	pg.DSN = "postgres://override"
	if got := pg.ConnString(); got != "postgres://override" {
		t.Errorf("DSN should take precedence, got %q", got)
	}
}
