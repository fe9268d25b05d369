package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ecovision/climate-analytics/internal/cache"
	"github.com/ecovision/climate-analytics/internal/logging"
	"github.com/ecovision/climate-analytics/internal/metrics"
	"github.com/ecovision/climate-analytics/internal/storage"
)

// checkMetric rejects a metric name the repository does not know
func checkMetric(ctx context.Context, repo storage.Repository, name string) error {
	if name == "" {
		return nil
	}
	if _, err := repo.GetMetric(ctx, name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewServiceError(CodeInvalidMetric, "Invalid metric name.")
		}
		return queryFailed("Failed to look up metric", err)
	}
	return nil
}

// cachedJSON reads a cached payload; cache failures count as misses
func cachedJSON(ctx context.Context, c cache.Cache, logger *logging.Logger, key string) (json.RawMessage, bool) {
	data, ok, err := c.Get(ctx, key)
	switch {
	case err != nil:
		metrics.RecordCache("get", "error")
		logger.Warn("Cache read failed", "key", key, "error", err)
		return nil, false
	case !ok:
		metrics.RecordCache("get", "miss")
		return nil, false
	default:
		metrics.RecordCache("get", "hit")
		return data, true
	}
}

// storeJSON marshals v and caches it; the encoded payload is returned either way
func storeJSON(ctx context.Context, c cache.Cache, logger *logging.Logger, key string, v interface{}, ttl time.Duration) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		metrics.RecordCache("set", "error")
		logger.Warn("Cache write failed", "key", key, "error", err)
	} else {
		metrics.RecordCache("set", "ok")
	}
	return data, nil
}
