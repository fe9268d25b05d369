package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Versions  VersionsConfig  `mapstructure:"versions"`
}

// AuthConfig represents authentication configuration for admin endpoints
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort     int           `mapstructure:"http_port"` // HTTP server port
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// RequestTimeout bounds repository and cache calls made for one request.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	BodyLimit      int           `mapstructure:"body_limit"` // Max request body size in bytes (ingest payloads)
}

// StorageConfig represents storage configuration
type StorageConfig struct {
	Driver   string         `mapstructure:"driver"`    // memory (default) or postgres
	SeedFile string         `mapstructure:"seed_file"` // Optional dataset loaded into the memory store at startup
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig represents PostgreSQL connection configuration
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"` // Takes precedence over the discrete fields below
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
	Migrate  bool   `mapstructure:"migrate"` // Apply embedded migrations on startup
}

// CacheConfig represents response cache configuration
type CacheConfig struct {
	Driver string        `mapstructure:"driver"` // memory (default), redis or none
	TTL    time.Duration `mapstructure:"ttl"`    // TTL for analytics responses

	// Redis-specific options
	RedisURL  string `mapstructure:"redis_url"`
	RedisDB   int    `mapstructure:"redis_db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	Compress  bool   `mapstructure:"compress"` // snappy-compress cached payloads
}

// QueueConfig represents message queue configuration for cache invalidation events
type QueueConfig struct {
	Type     string `mapstructure:"type"`     // Queue type: memory (default), nats, redis, kafka
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication
	Subject  string `mapstructure:"subject"`  // Subject for data-changed events

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`       // Redis database number (default: 0)
	RedisStream   string `mapstructure:"redis_stream"`   // Redis stream prefix (default: "ecovision")
	RedisGroup    string `mapstructure:"redis_group"`    // Redis consumer group (default: hostname based)
	RedisConsumer string `mapstructure:"redis_consumer"` // Redis consumer name (default: hostname)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`  // Kafka broker addresses
	KafkaGroupID string   `mapstructure:"kafka_group_id"` // Kafka consumer group ID
}

// AnalyticsConfig represents analytics engine configuration
type AnalyticsConfig struct {
	Weights                map[string]float64 `mapstructure:"weights"`
	AnomalyThreshold       float64            `mapstructure:"anomaly_threshold"` // in standard deviations, >= 2
	TrendRelativeTolerance float64            `mapstructure:"trend_relative_tolerance"`
	TrendAbsoluteTolerance float64            `mapstructure:"trend_absolute_tolerance"`
	SeasonalityGranularity string             `mapstructure:"seasonality_granularity"` // season or month
	SeasonalityThreshold   float64            `mapstructure:"seasonality_threshold"`   // minimum explained variance
}

// RateLimitConfig represents rate limiting for the analytics endpoints
type RateLimitConfig struct {
	Enabled            bool `mapstructure:"enabled"`
	AnalyticsPerMinute int  `mapstructure:"analytics_per_minute"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, UnixMs, etc
}

// VersionsConfig holds the cache-key versions. Bump Algo when analytics output
// changes; Data is the starting data version and increases on every ingest.
type VersionsConfig struct {
	Data int64 `mapstructure:"data"`
	Algo int64 `mapstructure:"algo"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if _, err := c.Analytics.EngineConfig(); err != nil {
		return fmt.Errorf("analytics config: %w", err)
	}

	if c.RateLimit.Enabled && c.RateLimit.AnalyticsPerMinute < 1 {
		return fmt.Errorf("rate_limit.analytics_per_minute must be at least 1")
	}

	if c.Auth.Enabled && len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("auth.api_keys is required when auth is enabled")
	}

	if c.Versions.Data < 1 || c.Versions.Algo < 1 {
		return fmt.Errorf("versions.data and versions.algo must be at least 1")
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}

	return nil
}

// Validate validates storage configuration
func (c *StorageConfig) Validate() error {
	switch c.Driver {
	case "memory":
		return nil
	case "postgres":
		if c.Postgres.DSN == "" && (c.Postgres.Host == "" || c.Postgres.Database == "") {
			return fmt.Errorf("postgres.dsn or postgres.host and postgres.database are required")
		}
		return nil
	default:
		return fmt.Errorf("storage.driver must be 'memory' or 'postgres', got %q", c.Driver)
	}
}

// Validate validates cache configuration
func (c *CacheConfig) Validate() error {
	switch c.Driver {
	case "memory", "none":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required for the redis driver")
		}
	default:
		return fmt.Errorf("cache.driver must be one of: memory, redis, none")
	}

	if c.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}

	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	switch c.Type {
	case "memory":
	case "nats", "redis":
		if c.URL == "" {
			return fmt.Errorf("queue.url is required for %s", c.Type)
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 && c.URL == "" {
			return fmt.Errorf("queue.kafka_brokers or queue.url is required for kafka")
		}
	default:
		return fmt.Errorf("queue.type must be one of: memory, nats, redis, kafka")
	}

	if c.Subject == "" {
		return fmt.Errorf("queue.subject is required")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
