// Command batch-scorer runs one full scoring pass over every scorable
// gene and prints the run summary as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/targetrank-server/internal/analytics"
	"github.com/targetrank-server/internal/batch"
	"github.com/targetrank-server/internal/config"
	"github.com/targetrank-server/internal/database"
	"github.com/targetrank-server/internal/logging"
	"github.com/targetrank-server/internal/repository"
	"github.com/targetrank-server/internal/scorestore"
	"github.com/targetrank-server/internal/scoring"
)

func main() {
	workers := flag.Int("workers", 0, "worker count, 0 uses the configured value")
	exportPath := flag.String("export", "", "export all archived runs as JSON to this file and exit")
	skipMigrate := flag.Bool("skip-migrate", false, "skip applying migrations")
	flag.Parse()

	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := logging.NewLogger(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Interrupt received, aborting run")
		cancel()
	}()

	databaseURL := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database, cfg.Database.SSLMode)

	var runs scorestore.Store
	switch cfg.Scoring.StoreBackend {
	case "sqlite":
		runs, err = scorestore.NewSQLiteStore(cfg.Scoring.SQLiteDBPath)
	default:
		runs, err = scorestore.NewPostgresStoreFromURL(databaseURL)
	}
	if err != nil {
		logger.WithError(err).Fatal("Failed to open run archive store")
	}
	defer runs.Close()

	if *exportPath != "" {
		exportRuns(ctx, logger, runs, *exportPath)
		return
	}

	if !*skipMigrate {
		runner, err := database.NewMigrationRunner(databaseURL, cfg.Database.MigrationsPath, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create migration runner")
		}
		if err := runner.Up(); err != nil {
			logger.WithError(err).Fatal("Failed to apply migrations")
		}
		runner.Close()
	}

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

	workerCount := cfg.Scoring.Workers
	if *workers > 0 {
		workerCount = *workers
	}

	engine := scoring.NewEngine(logger)
	pipeline := scoring.NewPipeline(logger, engine, workerCount)
	evidence := repository.NewEvidenceRepository(db.Pool, logger)
	scores := repository.NewScoreRepository(db.Pool, logger)
	analyzer := analytics.NewAnalyzer(logger, engine.Tables())
	analyticsService := analytics.NewService(logger, analyzer, scores, nil)

	runner := batch.NewRunner(logger, evidence, pipeline, scores, runs, analyticsService, cfg.Scoring.BatchTimeout)

	summary, err := runner.Run(ctx)
	if err != nil {
		logger.WithError(err).Fatal("Batch run failed")
	}
	if summary == nil {
		logger.Info("Nothing to score")
		return
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summary); err != nil {
		logger.WithError(err).Fatal("Failed to print summary")
	}
}

func exportRuns(ctx context.Context, logger *logrus.Logger, runs scorestore.Store, path string) {
	file, err := os.Create(path)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create export file")
	}
	defer file.Close()

	if err := runs.ExportJSON(ctx, file); err != nil {
		logger.WithError(err).Fatal("Failed to export runs")
	}
}
