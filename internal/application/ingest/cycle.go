package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stagewatch/internal/domain/event"
	"stagewatch/internal/domain/observability"
	"stagewatch/internal/domain/play"
	"stagewatch/internal/shared/biztime"
	"stagewatch/internal/shared/config"
	"stagewatch/internal/shared/errors"
	"stagewatch/internal/shared/logger"
	"stagewatch/internal/shared/normalize"
)

// Transactor runs a function inside one database transaction.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Outcome labels one cycle's result for the metric row.
type Outcome string

const (
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeEvent     Outcome = "event"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeTransient Outcome = "transient_error"
	OutcomePermanent Outcome = "permanent_error"
)

// CycleResult reports what one poll cycle did for one link.
type CycleResult struct {
	LinkID  uint
	Outcome Outcome
	Event   *event.ChangeEvent
}

// PollCycle drives the fetch, resolve, diff, commit sequence for a single
// source link. The durable commit is atomic: snapshot, event, tickets, and
// the link fingerprint move together or not at all. Fan-out and cache
// refresh happen after the commit and never roll it back.
type PollCycle struct {
	client    SourceClient
	resolver  *Resolver
	diff      *DiffEngine
	links     play.SourceLinkRepository
	snapshots play.SnapshotRepository
	events    event.Repository
	tickets   event.TicketRepository
	locks     LinkLocker
	cache     SnapshotCache
	sink      EventSink
	tx        Transactor
	recorder  observability.Recorder
	cfg       config.PollerConfig
	logger    logger.Interface
}

func NewPollCycle(
	client SourceClient,
	resolver *Resolver,
	diff *DiffEngine,
	links play.SourceLinkRepository,
	snapshots play.SnapshotRepository,
	events event.Repository,
	tickets event.TicketRepository,
	locks LinkLocker,
	cache SnapshotCache,
	sink EventSink,
	tx Transactor,
	recorder observability.Recorder,
	cfg config.PollerConfig,
	log logger.Interface,
) *PollCycle {
	return &PollCycle{
		client:    client,
		resolver:  resolver,
		diff:      diff,
		links:     links,
		snapshots: snapshots,
		events:    events,
		tickets:   tickets,
		locks:     locks,
		cache:     cache,
		sink:      sink,
		tx:        tx,
		recorder:  recorder,
		cfg:       cfg,
		logger:    log.Named("poll_cycle"),
	}
}

// RunLink polls one link end to end. Concurrent pollers contend on the
// per-link lock; the loser skips this round instead of double-fetching.
func (c *PollCycle) RunLink(ctx context.Context, link *play.SourceLink) (*CycleResult, error) {
	acquired, err := c.locks.TryAcquire(ctx, link.ID(), c.cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		c.logger.Debugw("link locked by another poller", "link_id", link.ID())
		return &CycleResult{LinkID: link.ID(), Outcome: OutcomeSkipped}, nil
	}
	defer func() {
		if err := c.locks.Release(context.WithoutCancel(ctx), link.ID()); err != nil {
			c.logger.Warnw("failed to release link lock", "link_id", link.ID(), "error", err)
		}
	}()

	result, err := c.runLocked(ctx, link)
	c.recordOutcome(ctx, link, result, err)
	return result, err
}

func (c *PollCycle) runLocked(ctx context.Context, link *play.SourceLink) (*CycleResult, error) {
	rec, err := c.client.Fetch(ctx, link.Source(), link.SourceID())
	if err != nil {
		if errors.IsTransient(err) {
			c.logger.Warnw("transient fetch failure", "link_id", link.ID(), "error", err)
			return &CycleResult{LinkID: link.ID(), Outcome: OutcomeTransient}, err
		}
		c.logger.Errorw("permanent fetch failure", "link_id", link.ID(), "error", err)
		// A record that permanently yields nothing also counts against the
		// alias that produced the binding; the review sweep picks it up.
		if nerr := c.resolver.NoteNoResponse(ctx, link); nerr != nil {
			c.logger.Warnw("no-response bookkeeping failed", "link_id", link.ID(), "error", nerr)
		}
		c.failLink(ctx, link, err)
		return &CycleResult{LinkID: link.ID(), Outcome: OutcomePermanent}, err
	}

	res, err := c.resolver.Resolve(ctx, link.Source(), rec)
	if err != nil {
		c.failLink(ctx, link, err)
		return &CycleResult{LinkID: link.ID(), Outcome: OutcomePermanent}, err
	}
	link = res.Link

	cityNorm := normalize.City(rec.City)
	if cityNorm == "" {
		cityNorm = link.CityHint()
	}
	if cityNorm == "" {
		cityNorm = res.Play.DefaultCityNorm()
	}

	prev, err := c.snapshots.Get(ctx, res.Play.ID(), cityNorm)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}
	var prevPayload json.RawMessage
	if prev != nil {
		prevPayload = prev.Payload()
	}

	change, err := c.diff.Diff(link, prevPayload, rec.Payload)
	if err != nil {
		c.logger.Errorw("diff rejected payload", "link_id", link.ID(), "error", err)
		c.failLink(ctx, link, err)
		return &CycleResult{LinkID: link.ID(), Outcome: OutcomePermanent}, err
	}

	now := biztime.NowUTC()
	if change.Unchanged {
		if prev != nil {
			if err := c.snapshots.Touch(ctx, res.Play.ID(), cityNorm); err != nil {
				return nil, err
			}
		}
		link.MarkSynced(now)
		if err := c.links.Update(ctx, link); err != nil {
			return nil, err
		}
		return &CycleResult{LinkID: link.ID(), Outcome: OutcomeUnchanged}, nil
	}

	// Cancellation checkpoint between fetch and commit. A cancelled cycle
	// leaves the fingerprint untouched so the next poll re-diffs.
	if err := ctx.Err(); err != nil {
		return &CycleResult{LinkID: link.ID(), Outcome: OutcomeTransient},
			errors.NewTransientSourceError("cycle cancelled before commit").WithCause(err)
	}

	evt, err := c.buildEvent(res, link, cityNorm, rec, change)
	if err != nil {
		return nil, err
	}

	canonical, err := Canonicalize(rec.Payload)
	if err != nil {
		return nil, err
	}

	err = c.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := c.commitSnapshot(txCtx, prev, res.Play.ID(), cityNorm, canonical, now); err != nil {
			return err
		}
		if err := c.events.Append(txCtx, evt); err != nil {
			return err
		}
		if err := c.commitTickets(txCtx, res.Play.ID(), link, rec.Tickets, now); err != nil {
			return err
		}
		if err := link.AdvanceFingerprint(change.Fingerprint, now); err != nil {
			return err
		}
		return c.links.Update(txCtx, link)
	})
	if err != nil {
		return nil, fmt.Errorf("poll commit failed for link %d: %w", link.ID(), err)
	}

	c.afterCommit(ctx, res.Play.ID(), cityNorm, canonical, evt)
	return &CycleResult{LinkID: link.ID(), Outcome: OutcomeEvent, Event: evt}, nil
}

// failLink persists the permanent failure on the link so the scheduler stops
// polling it at full cadence. The next successful sync clears the state.
func (c *PollCycle) failLink(ctx context.Context, link *play.SourceLink, cause error) {
	link.MarkFailed(cause.Error(), biztime.NowUTC())
	if err := c.links.Update(context.WithoutCancel(ctx), link); err != nil {
		c.logger.Warnw("failed to persist link error state", "link_id", link.ID(), "error", err)
	}
}

func (c *PollCycle) buildEvent(res *Resolution, link *play.SourceLink, cityNorm string, rec *RawRecord, change *Change) (*event.ChangeEvent, error) {
	ticketID := ""
	if len(rec.Tickets) == 1 {
		ticketID = rec.Tickets[0].TicketID
	}
	return event.NewChangeEvent(res.Play.ID(), link.Source(), cityNorm, change.Kind, ticketID, change.Delta)
}

func (c *PollCycle) commitSnapshot(ctx context.Context, prev *play.Snapshot, playID uint, cityNorm string, payload json.RawMessage, now time.Time) error {
	if prev != nil {
		if err := prev.Replace(payload, c.cfg.SnapshotTTLSeconds, now); err != nil {
			return err
		}
		return c.snapshots.Upsert(ctx, prev)
	}
	snap, err := play.NewSnapshot(playID, cityNorm, payload, c.cfg.SnapshotTTLSeconds)
	if err != nil {
		return err
	}
	return c.snapshots.Upsert(ctx, snap)
}

// commitTickets supersedes changed ticket rows and inserts the fresh ones.
// Rows are never deleted; history stays queryable.
func (c *PollCycle) commitTickets(ctx context.Context, playID uint, link *play.SourceLink, raws []RawTicket, now time.Time) error {
	for _, raw := range raws {
		if raw.TicketID == "" {
			continue
		}
		current, err := c.tickets.GetCurrent(ctx, link.Source(), raw.TicketID)
		if err != nil && !errors.IsNotFound(err) {
			return err
		}
		if current != nil {
			same, err := samePayload(current.Payload(), raw.Payload)
			if err != nil {
				return err
			}
			if same {
				continue
			}
			current.Supersede(now)
			if err := c.tickets.Update(ctx, current); err != nil {
				return err
			}
		}
		t, err := event.NewTicket(
			raw.TicketID, playID, link.Source(),
			raw.Title, raw.Location, raw.StartTime,
			ticketStatus(raw.Status), raw.Price, raw.Total, raw.Left, raw.Payload,
		)
		if err != nil {
			c.logger.Warnw("skipping malformed ticket", "ticket_id", raw.TicketID, "error", err)
			continue
		}
		if err := c.tickets.Create(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// afterCommit refreshes the cache and hands the event to the fan-out sink.
// Failures here are logged, not propagated; the durable state already moved.
func (c *PollCycle) afterCommit(ctx context.Context, playID uint, cityNorm string, payload json.RawMessage, evt *event.ChangeEvent) {
	ttl := time.Duration(c.cfg.SnapshotTTLSeconds) * time.Second
	if err := c.cache.Set(ctx, playID, cityNorm, payload, ttl); err != nil {
		c.logger.Warnw("snapshot cache refresh failed", "play_id", playID, "error", err)
	}
	if err := c.sink.Publish(ctx, evt); err != nil {
		c.logger.Errorw("event fan-out failed", "event_id", evt.ID(), "error", err)
	}
}

func (c *PollCycle) recordOutcome(ctx context.Context, link *play.SourceLink, result *CycleResult, cycleErr error) {
	if result == nil {
		return
	}
	labels := map[string]string{
		"outcome": string(result.Outcome),
		"source":  link.Source().String(),
	}
	if result.Event != nil {
		labels["kind"] = result.Event.Kind().String()
	}
	m := observability.Metric{Name: observability.MetricPollCycleOutcome, Value: 1, Labels: labels, At: biztime.NowUTC()}
	if err := c.recorder.RecordMetric(context.WithoutCancel(ctx), m); err != nil {
		c.logger.Warnw("metric record failed", "error", err)
	}
	if cycleErr != nil {
		e := observability.ErrorRecord{
			Scope:   "poll_cycle",
			Code:    string(result.Outcome),
			Message: cycleErr.Error(),
			Context: map[string]string{"link_id": fmt.Sprint(link.ID())},
			At:      biztime.NowUTC(),
		}
		if err := c.recorder.RecordError(context.WithoutCancel(ctx), e); err != nil {
			c.logger.Warnw("error record failed", "error", err)
		}
	}
}

func samePayload(a, b json.RawMessage) (bool, error) {
	fa, err := Fingerprint(a)
	if err != nil {
		return false, err
	}
	fb, err := Fingerprint(b)
	if err != nil {
		return false, err
	}
	return fa == fb, nil
}

func ticketStatus(s string) event.TicketStatus {
	st := event.TicketStatus(s)
	if !st.IsValid() {
		return event.TicketStatusUnknown
	}
	return st
}
