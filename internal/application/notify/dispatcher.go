package notify

import (
	"context"
	"sync"
	"time"

	"stagewatch/internal/domain/dispatch"
	"stagewatch/internal/domain/observability"
	"stagewatch/internal/shared/biztime"
	"stagewatch/internal/shared/config"
	"stagewatch/internal/shared/logger"
)

// Dispatcher drains the send queue through a bounded pool of senders. Claimed
// entries that fail are rescheduled with exponential backoff until the
// attempt ceiling, then parked as failed and surfaced to the error log.
type Dispatcher struct {
	queue     dispatch.Repository
	transport dispatch.Transport
	recorder  observability.Recorder
	cfg       config.DispatcherConfig
	logger    logger.Interface
}

func NewDispatcher(
	queue dispatch.Repository,
	transport dispatch.Transport,
	recorder observability.Recorder,
	cfg config.DispatcherConfig,
	log logger.Interface,
) *Dispatcher {
	return &Dispatcher{
		queue:     queue,
		transport: transport,
		recorder:  recorder,
		cfg:       cfg,
		logger:    log.Named("dispatcher"),
	}
}

// Run pumps the queue until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.PumpInterval)
	defer ticker.Stop()

	d.logger.Infow("dispatcher started",
		"senders", d.cfg.Senders, "pump_interval", d.cfg.PumpInterval)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := d.PumpOnce(ctx, biztime.NowUTC()); err != nil {
				d.logger.Errorw("pump failed", "error", err)
			}
		}
	}
}

// Execute adapts one pump pass to the scheduler's batch-job shape.
func (d *Dispatcher) Execute(ctx context.Context) (int, error) {
	return d.PumpOnce(ctx, biztime.NowUTC())
}

// PumpOnce claims one batch of due entries and delivers them concurrently.
// Returns the number of confirmed deliveries.
func (d *Dispatcher) PumpOnce(ctx context.Context, now time.Time) (int, error) {
	entries, err := d.queue.ClaimDue(ctx, now, d.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	sem := make(chan struct{}, d.cfg.Senders)
	var wg sync.WaitGroup
	var mu sync.Mutex
	delivered := 0

	for _, entry := range entries {
		wg.Add(1)
		sem <- struct{}{}
		go func(e *dispatch.QueueEntry) {
			defer wg.Done()
			defer func() { <-sem }()
			if d.deliver(ctx, e, now) {
				mu.Lock()
				delivered++
				mu.Unlock()
			}
		}(entry)
	}
	wg.Wait()

	d.recordBacklog(ctx)
	return delivered, nil
}

// deliver sends one entry and settles its queue state. Reports true on
// confirmed delivery.
func (d *Dispatcher) deliver(ctx context.Context, e *dispatch.QueueEntry, now time.Time) bool {
	err := d.transport.Send(ctx, e.Target(), e.Payload())
	if err == nil {
		e.MarkDelivered()
		if rmErr := d.queue.Remove(ctx, e.ID()); rmErr != nil {
			d.logger.Warnw("failed to remove delivered entry", "entry_id", e.ID(), "error", rmErr)
		}
		d.recordOutcome(ctx, "delivered", e)
		return true
	}

	retryAt := now.Add(d.backoffFor(e.Attempts()))
	e.RecordFailure(err.Error(), retryAt, d.cfg.MaxAttempts)
	if uErr := d.queue.Update(ctx, e); uErr != nil {
		d.logger.Errorw("failed to persist delivery failure", "entry_id", e.ID(), "error", uErr)
		return false
	}

	if e.IsExhausted() {
		d.logger.Errorw("delivery permanently failed",
			"entry_id", e.ID(), "event_id", e.EventID(), "attempts", e.Attempts(), "error", err)
		d.recordOutcome(ctx, "failed", e)
		rec := observability.ErrorRecord{
			Scope:   "dispatch",
			Code:    "delivery_exhausted",
			Message: err.Error(),
			Context: map[string]string{"event_id": e.EventID(), "target": e.Target()},
			At:      biztime.NowUTC(),
		}
		if rErr := d.recorder.RecordError(context.WithoutCancel(ctx), rec); rErr != nil {
			d.logger.Warnw("error record failed", "error", rErr)
		}
	} else {
		d.logger.Warnw("delivery failed, rescheduled",
			"entry_id", e.ID(), "attempts", e.Attempts(), "retry_at", retryAt, "error", err)
		d.recordOutcome(ctx, "retried", e)
	}
	return false
}

// backoffFor doubles the initial backoff per prior attempt, capped at the
// configured maximum.
func (d *Dispatcher) backoffFor(attempts int) time.Duration {
	backoff := d.cfg.InitialBackoff
	for i := 0; i < attempts; i++ {
		backoff *= 2
		if backoff >= d.cfg.MaxBackoff {
			return d.cfg.MaxBackoff
		}
	}
	return backoff
}

func (d *Dispatcher) recordOutcome(ctx context.Context, outcome string, e *dispatch.QueueEntry) {
	m := observability.Metric{
		Name:   observability.MetricDispatchOutcome,
		Value:  1,
		Labels: map[string]string{"outcome": outcome, "event_id": e.EventID()},
		At:     biztime.NowUTC(),
	}
	if err := d.recorder.RecordMetric(context.WithoutCancel(ctx), m); err != nil {
		d.logger.Warnw("metric record failed", "error", err)
	}
}

func (d *Dispatcher) recordBacklog(ctx context.Context) {
	backlog, err := d.queue.CountPending(ctx)
	if err != nil {
		d.logger.Warnw("backlog count failed", "error", err)
		return
	}
	m := observability.Metric{
		Name:  observability.MetricQueueBacklog,
		Value: float64(backlog),
		At:    biztime.NowUTC(),
	}
	if err := d.recorder.RecordMetric(context.WithoutCancel(ctx), m); err != nil {
		d.logger.Warnw("metric record failed", "error", err)
	}
}
