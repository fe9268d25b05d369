package cache

import (
	"fmt"
	"time"

	"github.com/ecovision/climate-analytics/internal/config"
)

// New creates the cache selected by cfg.Driver
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Driver {
	case "memory", "":
		return NewMemoryCache(time.Minute), nil
	case "redis":
		return NewRedisCache(RedisConfig{
			URL:       cfg.RedisURL,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
			Compress:  cfg.Compress,
		})
	case "none":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Driver)
	}
}
