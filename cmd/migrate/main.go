package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/dvloznov/statement-sync/internal/config"
	infraBQ "github.com/dvloznov/statement-sync/internal/infra/bigquery"
	"github.com/dvloznov/statement-sync/internal/logger"
)

// migrate creates the BigQuery mirror tables. It is safe to run repeatedly.
func main() {
	configPath := flag.String("config", os.Getenv(config.EnvPrefix+"CONFIG"), "YAML config file")
	projectID := flag.String("project", "", "GCP project ID (overrides config)")
	datasetID := flag.String("dataset", "", "BigQuery dataset ID (overrides config)")
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *projectID != "" {
		cfg.BigQuery.ProjectID = *projectID
	}
	if *datasetID != "" {
		cfg.BigQuery.DatasetID = *datasetID
	}
	if !cfg.MirrorEnabled() {
		log.Fatal().Msg("Error: -project flag or STATEMENT_SYNC_BQ_PROJECT is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := infraBQ.NewRepository(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer repo.Close()

	log.Info().
		Str("project", cfg.BigQuery.ProjectID).
		Str("dataset", cfg.BigQuery.DatasetID).
		Msg("Ensuring mirror tables")

	if err := repo.EnsureTables(ctx); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	log.Info().Msg("Migration completed successfully")
}
