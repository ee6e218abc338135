package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/dvloznov/statement-sync/internal/jobs"
	"github.com/dvloznov/statement-sync/internal/jobs/inmemory"
)

type mockEnqueuer struct {
	TryPublishSyncFunc func(ctx context.Context, job *jobs.SyncJob) (bool, error)
}

func (m *mockEnqueuer) TryPublishSync(ctx context.Context, job *jobs.SyncJob) (bool, error) {
	return m.TryPublishSyncFunc(ctx, job)
}

func TestNew_InvalidSchedule(t *testing.T) {
	if _, err := New(context.Background(), "not a schedule", &mockEnqueuer{}); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestScheduler_Publish(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
		err  error
		want bool
	}{
		{"accepted", true, nil, true},
		{"busy", false, nil, false},
		{"closed", false, errors.New("queue is closed"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *jobs.SyncJob
			q := &mockEnqueuer{TryPublishSyncFunc: func(ctx context.Context, job *jobs.SyncJob) (bool, error) {
				got = job
				return tt.ok, tt.err
			}}
			s, err := New(context.Background(), "*/5 * * * *", q)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if s.Publish(jobs.TriggerSchedule) != tt.want {
				t.Errorf("Publish = %v, want %v", !tt.want, tt.want)
			}
			if got == nil || got.Trigger != jobs.TriggerSchedule {
				t.Errorf("published job = %+v", got)
			}
		})
	}
}

func TestScheduler_SkipsWhileBusy(t *testing.T) {
	store := inmemory.NewStore()
	q := inmemory.NewQueue(1, 1, store)
	defer q.Close()

	s, err := New(context.Background(), "0 * * * *", q)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Nothing consumes the queue, so only the first tick fits.
	if !s.Publish(jobs.TriggerStartup) {
		t.Fatal("first publish should be accepted")
	}
	if s.Publish(jobs.TriggerSchedule) {
		t.Error("second publish should be skipped")
	}

	failed, _ := store.ListJobs(context.Background(), jobs.JobFilter{Status: jobs.JobStatusFailed})
	if len(failed) != 1 || failed[0].Trigger != jobs.TriggerSchedule {
		t.Errorf("failed jobs = %+v", failed)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := New(context.Background(), "0 3 * * *", &mockEnqueuer{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if len(s.cron.Entries()) != 1 {
		t.Errorf("entries = %d, want 1", len(s.cron.Entries()))
	}
	<-s.Stop().Done()
}
