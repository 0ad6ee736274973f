package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/robfig/cron/v3"

	"github.com/demoplan/demoplan/engine/sync/tasks"
	"github.com/demoplan/demoplan/pkg/config"
	"github.com/demoplan/demoplan/pkg/logger"
)

// Manager owns the River client processing the sync queue: the three push
// task families, the reconciliation pull, and its periodic schedule.
type Manager struct {
	client *river.Client[pgx.Tx]

	mu      sync.Mutex
	started bool
}

// NewManager builds the River client without starting it, so jobs can be
// enqueued before Start.
func NewManager(pool *pgxpool.Pool, deps tasks.Deps, cfg *config.SyncConfig) (*Manager, error) {
	workers := river.NewWorkers()
	tasks.AddWorkers(workers, deps)

	pullSchedule, err := parseCronSchedule(cfg.PullCron)
	if err != nil {
		return nil, fmt.Errorf("invalid pull cron %q: %w", cfg.PullCron, err)
	}
	periodicJobs := []*river.PeriodicJob{
		river.NewPeriodicJob(
			pullSchedule,
			func() (river.JobArgs, *river.InsertOpts) {
				return tasks.PullEventsArgs{}, &river.InsertOpts{Queue: tasks.QueueSync, MaxAttempts: 1}
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		),
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			tasks.QueueSync: {MaxWorkers: cfg.QueueMaxWorkers},
		},
		Workers:      workers,
		PeriodicJobs: periodicJobs,
		Logger:       slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})),
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}
	return &Manager{client: client}, nil
}

// Client exposes the underlying River client for enqueue facades.
func (m *Manager) Client() *river.Client[pgx.Tx] {
	return m.client
}

// Start begins processing jobs on the sync queue.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return fmt.Errorf("job manager already started")
	}
	if err := m.client.Start(ctx); err != nil {
		return fmt.Errorf("starting river client: %w", err)
	}
	m.started = true
	logger.FromContext(ctx).Info("Job manager started", "queue", tasks.QueueSync)
	return nil
}

// Stop drains in-flight jobs and shuts the client down. Stopping an
// unstarted manager is a no-op.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return nil
	}
	if err := m.client.Stop(ctx); err != nil {
		return fmt.Errorf("stopping river client: %w", err)
	}
	m.started = false
	logger.FromContext(ctx).Info("Job manager stopped")
	return nil
}

// cronScheduleAdapter adapts robfig/cron to River's PeriodicSchedule.
type cronScheduleAdapter struct {
	schedule cron.Schedule
}

func (a *cronScheduleAdapter) Next(current time.Time) time.Time {
	return a.schedule.Next(current)
}

func parseCronSchedule(expr string) (river.PeriodicSchedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, err
	}
	return &cronScheduleAdapter{schedule: schedule}, nil
}
