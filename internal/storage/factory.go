package storage

import (
	"context"
	"fmt"

	"github.com/ecovision/climate-analytics/internal/config"
	"github.com/ecovision/climate-analytics/internal/logging"
)

// New creates the repository selected by cfg.Driver. The memory store is seeded
// from cfg.SeedFile when one is configured.
func New(ctx context.Context, cfg config.StorageConfig, logger *logging.Logger) (Repository, error) {
	if logger == nil {
		logger = logging.Global()
	}

	switch cfg.Driver {
	case "postgres":
		return NewPostgresStore(ctx, cfg.Postgres.ConnString(), cfg.Postgres.Migrate, logger)

	case "memory", "":
		store := NewMemoryStore(logger)
		if cfg.SeedFile == "" {
			return store, nil
		}
		ds, err := LoadDataset(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		report, err := store.Ingest(ctx, ds)
		if err != nil {
			return nil, fmt.Errorf("failed to seed memory store: %w", err)
		}
		logger.Info("Seeded memory store",
			"file", cfg.SeedFile,
			"locations", report.Locations,
			"metrics", report.Metrics,
			"records", report.Records,
			"skipped", len(report.Skipped))
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
