// Package scheduler provides unified scheduled-job management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"stagewatch/internal/shared/biztime"
	"stagewatch/internal/shared/logger"
)

// BatchJob is one scheduled batch pass. Execute returns how many items the
// pass processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// SchedulerManager owns the single gocron scheduler the process runs.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterPollJob runs the poll pump every interval, starting immediately.
// Singleton mode keeps a slow pass from overlapping the next tick.
func (m *SchedulerManager) RegisterPollJob(pump BatchJob, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			m.runBatch(ctx, "poll-pump", pump)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("poll"),
		gocron.WithName("poll-pump"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered poll job", "interval", interval)
	return nil
}

// RegisterDispatchJob drains the send queue every interval.
func (m *SchedulerManager) RegisterDispatchJob(pump BatchJob, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			m.runBatch(ctx, "dispatch-pump", pump)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("dispatch"),
		gocron.WithName("dispatch-pump"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered dispatch job", "interval", interval)
	return nil
}

// RegisterReviewSweepJob flags stale aliases for curation once a day at
// 03:00 business time.
func (m *SchedulerManager) RegisterReviewSweepJob(sweep BatchJob) error {
	_, err := m.scheduler.NewJob(
		gocron.CronJob("0 3 * * *", false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			m.runBatch(ctx, "review-sweep", sweep)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("review"),
		gocron.WithName("review-sweep"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered review sweep job", "schedule", "03:00 daily")
	return nil
}

func (m *SchedulerManager) runBatch(ctx context.Context, name string, job BatchJob) {
	start := biztime.NowUTC()
	count, err := job.Execute(ctx)
	if err != nil {
		m.logger.Errorw("scheduled job failed",
			"job", name,
			"error", err,
			"duration", time.Since(start),
		)
		return
	}
	if count > 0 {
		m.logger.Infow("scheduled job completed",
			"job", name,
			"count", count,
			"duration", time.Since(start),
		)
	} else {
		m.logger.Debugw("scheduled job completed with no work", "job", name)
	}
}

// Start begins executing registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}
	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler started", "jobs", len(m.scheduler.Jobs()))
}

// Stop shuts the scheduler down, waiting for running jobs.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}
	m.started = false
	return m.scheduler.Shutdown()
}
