package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")              // Current directory
		v.AddConfigPath("./configs")      // Project configs directory
		v.AddConfigPath("./config")       // Alternative config directory
		v.AddConfigPath("/etc/ecovision") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides, e.g. ECOVISION_STORAGE_DRIVER=postgres
	v.SetEnvPrefix("ECOVISION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// Server defaults
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.body_limit", d.Server.BodyLimit)

	// Storage defaults
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.seed_file", "")
	v.SetDefault("storage.postgres.dsn", "")
	v.SetDefault("storage.postgres.host", d.Storage.Postgres.Host)
	v.SetDefault("storage.postgres.port", d.Storage.Postgres.Port)
	v.SetDefault("storage.postgres.user", d.Storage.Postgres.User)
	v.SetDefault("storage.postgres.password", "")
	v.SetDefault("storage.postgres.database", d.Storage.Postgres.Database)
	v.SetDefault("storage.postgres.sslmode", d.Storage.Postgres.SSLMode)
	v.SetDefault("storage.postgres.max_conns", d.Storage.Postgres.MaxConns)
	v.SetDefault("storage.postgres.migrate", d.Storage.Postgres.Migrate)

	// Cache defaults
	v.SetDefault("cache.driver", d.Cache.Driver)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.redis_url", d.Cache.RedisURL)
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.key_prefix", d.Cache.KeyPrefix)
	v.SetDefault("cache.compress", d.Cache.Compress)

	// Queue defaults
	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)
	v.SetDefault("queue.subject", d.Queue.Subject)
	v.SetDefault("queue.redis_stream", d.Queue.RedisStream)
	v.SetDefault("queue.kafka_group_id", d.Queue.KafkaGroupID)

	// Analytics defaults
	v.SetDefault("analytics.weights", d.Analytics.Weights)
	v.SetDefault("analytics.anomaly_threshold", d.Analytics.AnomalyThreshold)
	v.SetDefault("analytics.trend_relative_tolerance", d.Analytics.TrendRelativeTolerance)
	v.SetDefault("analytics.trend_absolute_tolerance", d.Analytics.TrendAbsoluteTolerance)
	v.SetDefault("analytics.seasonality_granularity", d.Analytics.SeasonalityGranularity)
	v.SetDefault("analytics.seasonality_threshold", d.Analytics.SeasonalityThreshold)

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", d.RateLimit.Enabled)
	v.SetDefault("rate_limit.analytics_per_minute", d.RateLimit.AnalyticsPerMinute)

	// Auth defaults
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_keys", []string{})

	// Logging defaults
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)

	// Version defaults
	v.SetDefault("versions.data", d.Versions.Data)
	v.SetDefault("versions.algo", d.Versions.Algo)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		// Return default configuration
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			HTTPPort:       5001,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   30 * time.Second,
			RequestTimeout: 10 * time.Second,
			BodyLimit:      32 * 1024 * 1024,
		},
		Storage: StorageConfig{
			Driver: "memory",
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "ecovision",
				Database: "climate_data",
				SSLMode:  "disable",
				MaxConns: 10,
				Migrate:  true,
			},
		},
		Cache: CacheConfig{
			Driver:    "memory",
			TTL:       10 * time.Minute,
			RedisURL:  "redis://localhost:6379",
			KeyPrefix: "ecovision:",
			Compress:  true,
		},
		Queue: QueueConfig{
			Type:         "memory",
			URL:          "nats://localhost:4222",
			Subject:      "ecovision.data.changed",
			RedisStream:  "ecovision",
			KafkaGroupID: "ecovision-invalidator",
		},
		Analytics: AnalyticsConfig{
			Weights: map[string]float64{
				"excellent":    1.0,
				"good":         0.8,
				"questionable": 0.5,
				"poor":         0.3,
			},
			AnomalyThreshold:       3.0,
			TrendRelativeTolerance: 0.001,
			TrendAbsoluteTolerance: 1e-9,
			SeasonalityGranularity: "season",
			SeasonalityThreshold:   0.3,
		},
		RateLimit: RateLimitConfig{
			Enabled:            true,
			AnalyticsPerMinute: 10,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
		Versions: VersionsConfig{
			Data: 1,
			Algo: 1,
		},
	}
}
