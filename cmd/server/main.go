package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/targetrank-server/internal/analytics"
	"github.com/targetrank-server/internal/api"
	"github.com/targetrank-server/internal/cache"
	"github.com/targetrank-server/internal/config"
	"github.com/targetrank-server/internal/database"
	"github.com/targetrank-server/internal/domain"
	"github.com/targetrank-server/internal/logging"
	"github.com/targetrank-server/internal/repository"
	"github.com/targetrank-server/internal/scorestore"
	"github.com/targetrank-server/internal/scoring"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := logging.NewLogger(cfg.Logging)
	logger.WithField("version", domain.ScoringVersion).Info("Starting evidence scoring server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run migrations before opening the pool
	migrationURL := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database, cfg.Database.SSLMode)
	runner, err := database.NewMigrationRunner(migrationURL, cfg.Database.MigrationsPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create migration runner")
	}
	if err := runner.Up(); err != nil {
		logger.WithError(err).Fatal("Failed to apply migrations")
	}
	runner.Close()

	// Connect to the evidence database
	db, err := database.NewConnection(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		Database:    cfg.Database.Database,
		Username:    cfg.Database.Username,
		Password:    cfg.Database.Password,
		MaxConns:    int32(cfg.Database.MaxOpenConns),
		MinConns:    int32(cfg.Database.MaxIdleConns),
		MaxConnLife: cfg.Database.ConnMaxLifetime,
		SSLMode:     cfg.Database.SSLMode,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	evidence := repository.NewEvidenceRepository(db.Pool, logger)
	scores := repository.NewScoreRepository(db.Pool, logger)

	// Run archive store, postgres by default
	var runs scorestore.Store
	switch cfg.Scoring.StoreBackend {
	case "sqlite":
		runs, err = scorestore.NewSQLiteStore(cfg.Scoring.SQLiteDBPath)
	default:
		runs, err = scorestore.NewPostgresStoreFromURL(migrationURL)
	}
	if err != nil {
		logger.WithError(err).Fatal("Failed to open run archive store")
	}
	defer runs.Close()

	// Profile cache: local LRU always, tiered through Redis when reachable
	local, err := cache.NewLocalCache(cfg.Cache.LRUSize, cfg.Cache.DefaultTTL, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create local cache")
	}
	var profileCache domain.ProfileCache = local
	remote, err := cache.NewRedisCache(cache.RedisConfig{
		URL:        cfg.Cache.RedisURL,
		PoolSize:   cfg.Cache.PoolSize,
		MaxRetries: cfg.Cache.MaxRetries,
		TTL:        cfg.Cache.DefaultTTL,
	}, logger)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, using in-process cache only")
	} else {
		profileCache = cache.NewTieredCache(local, remote)
		defer remote.Close()
	}

	// Scoring and analytics
	engine := scoring.NewEngine(logger)
	pipeline := scoring.NewPipeline(logger, engine, cfg.Scoring.Workers)
	analyzer := analytics.NewAnalyzer(logger, engine.Tables())
	analyticsService := analytics.NewService(logger, analyzer, scores, profileCache)

	server := api.NewServer(configManager, logger, evidence, pipeline, scores, runs, analyticsService)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}
