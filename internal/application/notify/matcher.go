// Package notify fans committed change events out to subscribers: matching
// targets, applying per-subscription delivery policy, and draining the send
// queue through a bounded sender pool.
package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"stagewatch/internal/domain/dispatch"
	"stagewatch/internal/domain/event"
	"stagewatch/internal/domain/subscription"
	vo "stagewatch/internal/domain/subscription/valueobjects"
	"stagewatch/internal/shared/biztime"
	"stagewatch/internal/shared/errors"
	"stagewatch/internal/shared/logger"
)

// Notice is the payload enqueued for delivery, one per matched subscription.
type Notice struct {
	EventID    string      `json:"event_id"`
	Kind       string      `json:"kind"`
	PlayID     uint        `json:"play_id"`
	Source     string      `json:"source"`
	City       string      `json:"city,omitempty"`
	TicketID   string      `json:"ticket_id,omitempty"`
	Delta      event.Delta `json:"delta,omitempty"`
	ObservedAt time.Time   `json:"observed_at"`
}

// Matcher resolves which subscriptions an event reaches and enqueues one
// send-queue entry per surviving subscription. Suppression is final: a muted
// or throttled event is not requeued.
type Matcher struct {
	subs    subscription.Repository
	targets subscription.TargetRepository
	options subscription.OptionRepository
	queue   dispatch.Repository
	logger  logger.Interface
}

func NewMatcher(
	subs subscription.Repository,
	targets subscription.TargetRepository,
	options subscription.OptionRepository,
	queue dispatch.Repository,
	log logger.Interface,
) *Matcher {
	return &Matcher{
		subs:    subs,
		targets: targets,
		options: options,
		queue:   queue,
		logger:  log.Named("matcher"),
	}
}

// Publish fans one committed event out. Per-subscription failures are logged
// and skipped; one broken subscription must not starve the rest.
func (m *Matcher) Publish(ctx context.Context, e *event.ChangeEvent) error {
	subIDs, err := m.matchSubscriptions(ctx, e)
	if err != nil {
		return err
	}
	if e.Kind().IsBroadcast() {
		if err := m.addBroadcastSubscribers(ctx, subIDs); err != nil {
			return err
		}
	}
	if len(subIDs) == 0 {
		return nil
	}

	payload, err := json.Marshal(Notice{
		EventID:    e.ID(),
		Kind:       e.Kind().String(),
		PlayID:     e.PlayID(),
		Source:     e.Source().String(),
		City:       e.CityNorm(),
		TicketID:   e.TicketID(),
		Delta:      e.Delta(),
		ObservedAt: e.ObservedAt(),
	})
	if err != nil {
		return err
	}

	now := biztime.NowUTC()
	enqueued := 0
	for subID := range subIDs {
		ok, err := m.enqueueFor(ctx, subID, e, payload, now)
		if err != nil {
			m.logger.Errorw("fan-out failed for subscription",
				"subscription_id", subID, "event_id", e.ID(), "error", err)
			continue
		}
		if ok {
			enqueued++
		}
	}
	m.logger.Infow("event fanned out",
		"event_id", e.ID(), "kind", e.Kind(), "matched", len(subIDs), "enqueued", enqueued)
	return nil
}

// matchSubscriptions builds the candidate (kind, id) pairs from the event
// context and collects the subscriptions behind the matching targets.
func (m *Matcher) matchSubscriptions(ctx context.Context, e *event.ChangeEvent) (map[uint]struct{}, error) {
	candidates := []struct {
		kind vo.TargetKind
		ids  []string
	}{
		{vo.TargetKindPlay, []string{strconv.FormatUint(uint64(e.PlayID()), 10)}},
		{vo.TargetKindSource, []string{e.Source().String()}},
	}
	if e.CityNorm() != "" {
		candidates = append(candidates, struct {
			kind vo.TargetKind
			ids  []string
		}{vo.TargetKindCity, []string{e.CityNorm()}})
	}

	subIDs := make(map[uint]struct{})
	for _, c := range candidates {
		targets, err := m.targets.ListByKindAndIDs(ctx, c.kind, c.ids)
		if err != nil {
			return nil, err
		}
		for _, t := range targets {
			if t.Matches(e.PlayID(), e.Source(), e.CityNorm()) {
				subIDs[t.SubscriptionID()] = struct{}{}
			}
		}
	}
	return subIDs, nil
}

func (m *Matcher) addBroadcastSubscribers(ctx context.Context, subIDs map[uint]struct{}) error {
	opts, err := m.options.ListBroadcastEnabled(ctx)
	if err != nil {
		return err
	}
	for _, o := range opts {
		subIDs[o.SubscriptionID()] = struct{}{}
	}
	return nil
}

// enqueueFor applies the option gates for one subscription and enqueues on
// pass. Returns false when the event was suppressed.
func (m *Matcher) enqueueFor(ctx context.Context, subID uint, e *event.ChangeEvent, payload json.RawMessage, now time.Time) (bool, error) {
	opt, err := m.options.GetBySubscriptionID(ctx, subID)
	if err != nil && !errors.IsNotFound(err) {
		return false, err
	}
	if opt == nil {
		// No option row yet: targeted events pass, broadcasts need opt-in.
		if e.Kind().IsBroadcast() {
			return false, nil
		}
	} else {
		if reason := opt.Evaluate(e.Kind(), now); reason != subscription.SuppressNone {
			m.logger.Debugw("notification suppressed",
				"subscription_id", subID, "event_id", e.ID(), "reason", reason)
			return false, nil
		}
		// The throttle window is claimed with a conditional write before the
		// enqueue; concurrent publishers racing on the same window see one
		// winner, and a failed enqueue costs the window rather than
		// double-sending.
		claimed, err := m.options.ClaimNotify(ctx, subID, now, opt.Frequency().Interval())
		if err != nil {
			return false, err
		}
		if !claimed {
			m.logger.Debugw("notification suppressed",
				"subscription_id", subID, "event_id", e.ID(), "reason", subscription.SuppressRateLimited)
			return false, nil
		}
	}

	sub, err := m.subs.GetByID(ctx, subID)
	if err != nil {
		return false, err
	}
	entry, err := dispatch.NewQueueEntry(subID, e.ID(), sub.Endpoint(), payload)
	if err != nil {
		return false, err
	}
	if err := m.queue.Enqueue(ctx, entry); err != nil {
		return false, err
	}
	return true, nil
}
