package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/statement-sync/internal/app"
	"github.com/dvloznov/statement-sync/internal/config"
	"github.com/dvloznov/statement-sync/internal/jobs"
	"github.com/dvloznov/statement-sync/internal/jobs/inmemory"
	"github.com/dvloznov/statement-sync/internal/logger"
	"github.com/dvloznov/statement-sync/internal/pipeline"
	"github.com/dvloznov/statement-sync/internal/scheduler"
)

func main() {
	configPath := flag.String("config", os.Getenv(config.EnvPrefix+"CONFIG"), "YAML config file")
	schedule := flag.String("schedule", "", "Cron schedule (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *schedule != "" {
		cfg.Worker.Schedule = *schedule
	}

	// Initialize logger
	log := logger.NewWithOptions(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer a.Close()

	// A single worker keeps sync runs from overlapping on the store.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Worker.QueueBuffer, 1, jobStore)

	log.Info().Msg("Starting worker service")

	if err := jobQueue.Start(ctx, syncHandler(a.Syncer)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	sched, err := scheduler.New(ctx, cfg.Worker.Schedule, jobQueue)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	if cfg.Worker.RunOnStart {
		sched.Publish(jobs.TriggerStartup)
	}

	log.Info().Str("schedule", cfg.Worker.Schedule).Msg("Worker service started, send SIGUSR1 to sync now")

	// Wait for interrupt signal; SIGUSR1 requests an immediate sync.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	for sig := range sigs {
		if sig == syscall.SIGUSR1 {
			sched.Publish(jobs.TriggerManual)
			continue
		}
		break
	}

	log.Info().Msg("Shutting down worker service...")

	<-sched.Stop().Done()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	// Cancel context to abort a sync that outlived the grace period
	cancel()

	recent, _ := jobStore.ListJobs(context.Background(), jobs.JobFilter{})
	log.Info().Int("jobs", len(recent)).Msg("Worker service exited")
}

// syncHandler runs one sync pass per job and copies the outcome onto it.
func syncHandler(syncer *pipeline.Syncer) jobs.JobHandler {
	return func(ctx context.Context, job jobs.Job) error {
		syncJob, ok := job.(*jobs.SyncJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log := logger.FromContext(ctx)
		log.Info().
			Str("job_id", syncJob.JobID).
			Str("trigger", string(syncJob.Trigger)).
			Msg("Processing sync job")

		result := syncer.Run(ctx)
		syncJob.RunID = result.RunID
		syncJob.NewTransactions = result.NewTransactions

		if !result.Success {
			return errors.New(result.Error)
		}

		log.Info().
			Str("job_id", syncJob.JobID).
			Int("new_transactions", result.NewTransactions).
			Int("errors", len(result.Errors)).
			Msg("Sync job completed")
		return nil
	}
}
