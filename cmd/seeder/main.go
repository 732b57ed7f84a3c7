// Package main provides the synthetic dataset seeder for CX Insights.
//
// The seeder replaces the complaints table with a deterministic synthetic
// dataset, giving local development and demo environments reproducible data.
// Generation parameters (row count, seed, dimension domains) can be tuned via
// an optional .insights.yaml file.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/cx-insights/complaints/internal/seeding"
	"github.com/cx-insights/complaints/internal/storage"
)

// Version information.
const (
	version = "1.0.0-dev"
	name    = "seeder"
)

func main() {
	versionFlag := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *versionFlag {
		log.Printf("%s v%s\n", name, version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	seedConfig, err := seeding.LoadConfigFromEnv()
	if err != nil {
		logger.Error("Failed to load seeder configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Generating synthetic complaint dataset",
		slog.Int("row_count", seedConfig.RowCount),
		slog.Int64("seed", seedConfig.Seed),
	)

	rows := seeding.NewGenerator(seedConfig).Generate()

	storageConfig := storage.LoadConfig()

	dbConn, err := storage.NewConnection(storageConfig)
	if err != nil {
		logger.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		_ = dbConn.Close()
	}()

	if err := seeding.Seed(context.Background(), dbConn, rows); err != nil {
		logger.Error("Failed to seed complaints table", slog.String("error", err.Error()))

		_ = dbConn.Close()
		//nolint:gocritic // Explicit cleanup before os.Exit is intentional (defer won't run)
		os.Exit(1)
	}

	logger.Info("Complaints table seeded",
		slog.String("database_url", storageConfig.MaskDatabaseURL()),
		slog.Int("rows", len(rows)),
	)
}
