package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"stagewatch/internal/domain/dispatch"
	"stagewatch/internal/domain/observability"
	"stagewatch/internal/domain/subscription"
	vo "stagewatch/internal/domain/subscription/valueobjects"
	"stagewatch/internal/shared/errors"
)

type memSubRepo struct {
	mu     sync.Mutex
	nextID uint
	subs   map[uint]*subscription.Subscription
}

func newMemSubRepo() *memSubRepo {
	return &memSubRepo{nextID: 1, subs: map[uint]*subscription.Subscription{}}
}

func (r *memSubRepo) Create(_ context.Context, s *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := s.SetID(r.nextID); err != nil {
		return err
	}
	r.nextID++
	r.subs[s.ID()] = s
	return nil
}

func (r *memSubRepo) GetByID(_ context.Context, id uint) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.subs[id]; ok {
		return s, nil
	}
	return nil, errors.NewNotFoundError("subscription not found")
}

func (r *memSubRepo) GetBySubscriberID(_ context.Context, subscriberID string) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.SubscriberID() == subscriberID {
			return s, nil
		}
	}
	return nil, errors.NewNotFoundError("subscription not found")
}

func (r *memSubRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, id)
	return nil
}

type memTargetRepo struct {
	mu      sync.Mutex
	nextID  uint
	targets []*subscription.Target
}

func newMemTargetRepo() *memTargetRepo { return &memTargetRepo{nextID: 1} }

func (r *memTargetRepo) Create(_ context.Context, t *subscription.Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.targets {
		if existing.SubscriptionID() == t.SubscriptionID() && existing.Kind() == t.Kind() && existing.TargetID() == t.TargetID() {
			return errors.NewPersistenceConflictError("target already exists")
		}
	}
	if err := t.SetID(r.nextID); err != nil {
		return err
	}
	r.nextID++
	r.targets = append(r.targets, t)
	return nil
}

func (r *memTargetRepo) Delete(_ context.Context, id uint) error { return nil }

func (r *memTargetRepo) ListBySubscriptionID(_ context.Context, subscriptionID uint) ([]*subscription.Target, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*subscription.Target
	for _, t := range r.targets {
		if t.SubscriptionID() == subscriptionID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memTargetRepo) ListByKindAndIDs(_ context.Context, kind vo.TargetKind, targetIDs []string) ([]*subscription.Target, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make(map[string]struct{}, len(targetIDs))
	for _, id := range targetIDs {
		ids[id] = struct{}{}
	}
	var out []*subscription.Target
	for _, t := range r.targets {
		if t.Kind() != kind {
			continue
		}
		if _, ok := ids[t.TargetID()]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

type memOptionRepo struct {
	mu      sync.Mutex
	nextID  uint
	options map[uint]*subscription.Option
}

func newMemOptionRepo() *memOptionRepo {
	return &memOptionRepo{nextID: 1, options: map[uint]*subscription.Option{}}
}

func (r *memOptionRepo) Create(_ context.Context, o *subscription.Option) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.options[o.SubscriptionID()]; ok {
		return errors.NewPersistenceConflictError("option already exists")
	}
	if err := o.SetID(r.nextID); err != nil {
		return err
	}
	r.nextID++
	r.options[o.SubscriptionID()] = o
	return nil
}

// GetBySubscriptionID returns a detached copy, like the gorm implementation
// where every read rebuilds the entity from the row.
func (r *memOptionRepo) GetBySubscriptionID(_ context.Context, subscriptionID uint) (*subscription.Option, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.options[subscriptionID]; ok {
		return cloneOption(o)
	}
	return nil, errors.NewNotFoundError("option not found")
}

func cloneOption(o *subscription.Option) (*subscription.Option, error) {
	return subscription.ReconstructOption(
		o.ID(), o.SubscriptionID(), o.Muted(), o.Frequency(), o.AllowBroadcast(),
		o.LastNotifiedAt(), o.CreatedAt(), o.UpdatedAt(),
	)
}

func (r *memOptionRepo) Update(_ context.Context, o *subscription.Option) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.options[o.SubscriptionID()] = o
	return nil
}

func (r *memOptionRepo) ClaimNotify(_ context.Context, subscriptionID uint, now time.Time, minInterval time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.options[subscriptionID]
	if !ok {
		return false, nil
	}
	if minInterval > 0 {
		if last := o.LastNotifiedAt(); last != nil && now.UTC().Sub(*last) < minInterval {
			return false, nil
		}
	}
	o.MarkNotified(now)
	return true, nil
}

func (r *memOptionRepo) ListBroadcastEnabled(_ context.Context) ([]*subscription.Option, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*subscription.Option
	for _, o := range r.options {
		if o.AllowBroadcast() {
			out = append(out, o)
		}
	}
	return out, nil
}

type memQueue struct {
	mu      sync.Mutex
	nextID  uint
	entries map[uint]*dispatch.QueueEntry
}

func newMemQueue() *memQueue { return &memQueue{nextID: 1, entries: map[uint]*dispatch.QueueEntry{}} }

func (q *memQueue) Enqueue(_ context.Context, e *dispatch.QueueEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := e.SetID(q.nextID); err != nil {
		return err
	}
	q.nextID++
	q.entries[e.ID()] = e
	return nil
}

func (q *memQueue) ClaimDue(_ context.Context, now time.Time, limit int) ([]*dispatch.QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []*dispatch.QueueEntry
	for _, e := range q.entries {
		if len(out) == limit {
			break
		}
		if e.IsDue(now) {
			if err := e.MarkSending(); err != nil {
				continue
			}
			out = append(out, e)
		}
	}
	return out, nil
}

func (q *memQueue) Update(_ context.Context, e *dispatch.QueueEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries[e.ID()] = e
	return nil
}

func (q *memQueue) Remove(_ context.Context, id uint) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.entries, id)
	return nil
}

func (q *memQueue) CountPending(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var n int64
	for _, e := range q.entries {
		if e.Status() == dispatch.StatusPending {
			n++
		}
	}
	return n, nil
}

func (q *memQueue) ListFailed(_ context.Context, limit int) ([]*dispatch.QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []*dispatch.QueueEntry
	for _, e := range q.entries {
		if e.IsExhausted() {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type fakeTransport struct {
	mu    sync.Mutex
	fail  int
	sends []string
}

func (f *fakeTransport) Send(_ context.Context, target string, _ json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail > 0 {
		f.fail--
		return errors.NewDeliveryFailureError("smtp timeout")
	}
	f.sends = append(f.sends, target)
	return nil
}

type nopRecorder struct{}

func (nopRecorder) RecordMetric(context.Context, observability.Metric) error     { return nil }
func (nopRecorder) RecordError(context.Context, observability.ErrorRecord) error { return nil }

type captureRecorder struct {
	mu      sync.Mutex
	errors  []observability.ErrorRecord
	metrics []observability.Metric
}

func (c *captureRecorder) RecordMetric(_ context.Context, m observability.Metric) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = append(c.metrics, m)
	return nil
}

func (c *captureRecorder) RecordError(_ context.Context, e observability.ErrorRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, e)
	return nil
}
