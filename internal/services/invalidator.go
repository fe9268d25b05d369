package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/ecovision/climate-analytics/internal/cache"
	"github.com/ecovision/climate-analytics/internal/logging"
	"github.com/ecovision/climate-analytics/internal/metrics"
	"github.com/ecovision/climate-analytics/internal/queue"
	"github.com/ecovision/climate-analytics/internal/utils"
)

// Invalidator keeps this replica's cache consistent with the dataset version
type Invalidator struct {
	logger   *logging.Logger
	cache    cache.Cache
	versions *cache.Versions
	instance string
}

// NewInvalidator creates a new Invalidator
func NewInvalidator(logger *logging.Logger, c cache.Cache, versions *cache.Versions) *Invalidator {
	metrics.DataVersion.Set(float64(versions.Data()))
	return &Invalidator{
		logger:   logger,
		cache:    c,
		versions: versions,
		instance: uuid.New().String(),
	}
}

// Versions returns the tracked versions
func (i *Invalidator) Versions() *cache.Versions {
	return i.versions
}

// Instance returns the ID stamped on events this replica publishes
func (i *Invalidator) Instance() string {
	return i.instance
}

// Start subscribes the invalidator to data-changed events
func (i *Invalidator) Start(sub queue.Subscriber, subject string) error {
	return sub.Subscribe(subject, i.Handle)
}

// Handle is the queue message handler
func (i *Invalidator) Handle(data []byte) error {
	event, err := queue.DecodeDataChanged(data)
	if err != nil {
		return err
	}
	// Local ingests are applied before they are published
	if event.Origin == i.instance {
		return nil
	}
	i.Apply(context.Background(), event)
	return nil
}

// Apply raises the data version to at least the event's and purges cached analytics
// and catalog entries. Purging runs even for already-seen versions since replicas
// may have bumped to the same number independently. Returns the resulting version.
func (i *Invalidator) Apply(ctx context.Context, event queue.DataChangedEvent) int64 {
	version := i.versions.Advance(event.DataVersion)
	i.versions.BeginPurge()
	metrics.DataVersion.Set(float64(version))
	metrics.CacheInvalidationsTotal.Inc()

	purged := 0
	for _, prefix := range []string{utils.EndpointSummary + ":", utils.EndpointTrends + ":"} {
		n, err := i.cache.DeletePrefix(ctx, prefix)
		if err != nil {
			i.logger.Warn("Cache purge failed", "prefix", prefix, "error", err)
			continue
		}
		purged += n
	}
	if err := i.cache.Delete(ctx, cache.KeyLocations, cache.KeyMetrics); err != nil {
		i.logger.Warn("Cache purge failed", "keys", "locations,metrics", "error", err)
	}

	i.logger.Info("Cache invalidated",
		"data_version", version,
		"source", event.Source,
		"purged", purged)
	return version
}
