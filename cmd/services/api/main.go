package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecovision/climate-analytics/internal/analytics/engine"
	"github.com/ecovision/climate-analytics/internal/cache"
	"github.com/ecovision/climate-analytics/internal/config"
	"github.com/ecovision/climate-analytics/internal/handlers"
	"github.com/ecovision/climate-analytics/internal/logging"
	"github.com/ecovision/climate-analytics/internal/queue"
	"github.com/ecovision/climate-analytics/internal/router"
	"github.com/ecovision/climate-analytics/internal/services"
	"github.com/ecovision/climate-analytics/internal/storage"
	"github.com/ecovision/climate-analytics/internal/utils"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("API service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	logger.Info("Opening storage", "driver", cfg.Storage.Driver)
	repo, err := storage.New(ctx, cfg.Storage, logger.Component("storage"))
	if err != nil {
		logger.Fatal("Failed to open storage", "error", err)
	}
	defer func() { _ = repo.Close() }()

	// Response cache
	logger.Info("Creating response cache", "driver", cfg.Cache.Driver, "ttl", cfg.Cache.TTL)
	respCache, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Fatal("Failed to create cache", "error", err)
	}
	defer func() { _ = respCache.Close() }()

	// Analytics engine
	engineCfg, err := cfg.Analytics.EngineConfig()
	if err != nil {
		logger.Fatal("Invalid analytics configuration", "error", err)
	}
	eng, err := engine.New(engineCfg)
	if err != nil {
		logger.Fatal("Failed to create analytics engine", "error", err)
	}

	// Connect to Queue (configurable backend)
	logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
	queueClient, err := queue.NewQueue(cfg.Queue, logger.Component("queue"))
	if err != nil {
		logger.Fatal("Failed to connect to Queue", "error", err)
	}
	defer func() { _ = queueClient.Close() }()
	logger.Info("Queue connection established")

	// Cache invalidation across replicas
	versions := cache.NewVersions(cfg.Versions.Data, cfg.Versions.Algo)
	invalidator := services.NewInvalidator(logger.Component("invalidator"), respCache, versions)
	if err := invalidator.Start(queueClient, cfg.Queue.Subject); err != nil {
		logger.Fatal("Failed to subscribe to data-changed events", "subject", cfg.Queue.Subject, "error", err)
	}

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - admin ingest is open")
	}

	h := handlers.New(logger, repo,
		services.NewClimateService(logger.Component("climate"), repo, respCache),
		services.NewAnalyticsService(logger.Component("analytics"), repo, respCache, versions, eng, cfg.Cache.TTL),
		services.NewIngestService(logger.Component("ingest"), repo, queueClient, cfg.Queue.Subject, invalidator),
		invalidator,
	)

	// Initialize router
	app := router.New(logger, h, *cfg)

	// Start server in goroutine
	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if err := queueClient.Unsubscribe(cfg.Queue.Subject); err != nil {
		logger.Warn("Failed to unsubscribe", "subject", cfg.Queue.Subject, "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
