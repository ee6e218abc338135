// Package scheduler publishes sync jobs on a cron schedule using robfig/cron.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/dvloznov/statement-sync/internal/jobs"
	"github.com/dvloznov/statement-sync/internal/logger"
)

// Enqueuer accepts a job without blocking and reports whether it was queued.
type Enqueuer interface {
	TryPublishSync(ctx context.Context, job *jobs.SyncJob) (bool, error)
}

// Scheduler publishes a sync job on every tick of a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	queue    Enqueuer
	ctx      context.Context
}

// New creates a scheduler for a standard 5-field cron expression.
// ctx carries the logger and bounds every publish.
func New(ctx context.Context, schedule string, queue Enqueuer) (*Scheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("scheduler: invalid schedule %q: %w", schedule, err)
	}
	log := logger.FromContext(ctx)
	c := cron.New(cron.WithLogger(cronLogger{log: log}))

	return &Scheduler{
		cron:     c,
		schedule: schedule,
		queue:    queue,
		ctx:      ctx,
	}, nil
}

// Start registers the sync job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.Publish(jobs.TriggerSchedule) }); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	s.cron.Start()
	log := logger.FromContext(s.ctx)
	log.Info().
		Str("schedule", s.schedule).
		Int("entries", len(s.cron.Entries())).
		Msg("Cron scheduler started")
	return nil
}

// Stop stops the cron loop. The returned context is done once any
// in-progress tick has returned.
func (s *Scheduler) Stop() context.Context {
	log := logger.FromContext(s.ctx)
	log.Info().Msg("Cron scheduler stopping")
	return s.cron.Stop()
}

// Publish enqueues one sync job. A tick that finds a sync queued or
// running is skipped rather than queued behind it.
func (s *Scheduler) Publish(trigger jobs.Trigger) bool {
	log := logger.FromContext(s.ctx)

	job := &jobs.SyncJob{Trigger: trigger}
	ok, err := s.queue.TryPublishSync(s.ctx, job)
	switch {
	case err != nil:
		log.Error().Err(err).Str("trigger", string(trigger)).Msg("Failed to publish sync job")
		return false
	case !ok:
		log.Warn().Str("job_id", job.JobID).Str("trigger", string(trigger)).Msg("Sync already queued or running, skipping")
		return false
	default:
		log.Info().Str("job_id", job.JobID).Str("trigger", string(trigger)).Msg("Published sync job")
		return true
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
