package ingest

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"stagewatch/internal/domain/event"
	"stagewatch/internal/domain/observability"
	"stagewatch/internal/domain/play"
	vo "stagewatch/internal/domain/play/valueobjects"
	"stagewatch/internal/shared/errors"
)

// In-memory repository doubles. They enforce the same unique constraints the
// gorm implementations do so conflict paths are exercised for real.

type memPlayRepo struct {
	mu     sync.Mutex
	nextID uint
	plays  map[uint]*play.Play
}

func newMemPlayRepo() *memPlayRepo {
	return &memPlayRepo{nextID: 1, plays: map[uint]*play.Play{}}
}

func (r *memPlayRepo) Create(_ context.Context, p *play.Play) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.plays {
		if existing.NameNorm() == p.NameNorm() && existing.DefaultCityNorm() == p.DefaultCityNorm() {
			return errors.NewPersistenceConflictError("play already exists")
		}
	}
	if err := p.SetID(r.nextID); err != nil {
		return err
	}
	r.nextID++
	r.plays[p.ID()] = p
	return nil
}

func (r *memPlayRepo) GetByID(_ context.Context, id uint) (*play.Play, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.plays[id]; ok {
		return p, nil
	}
	return nil, errors.NewNotFoundError("play not found")
}

func (r *memPlayRepo) GetByNameNorm(_ context.Context, nameNorm, cityNorm string) (*play.Play, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plays {
		if p.NameNorm() == nameNorm && p.DefaultCityNorm() == cityNorm {
			return p, nil
		}
	}
	return nil, errors.NewNotFoundError("play not found")
}

func (r *memPlayRepo) Update(_ context.Context, p *play.Play) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plays[p.ID()] = p
	return nil
}

func (r *memPlayRepo) ListAll(_ context.Context) ([]*play.Play, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*play.Play, 0, len(r.plays))
	for _, p := range r.plays {
		out = append(out, p)
	}
	return out, nil
}

func (r *memPlayRepo) ListPendingReview(_ context.Context) ([]*play.Play, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*play.Play
	for _, p := range r.plays {
		if p.PendingReview() {
			out = append(out, p)
		}
	}
	return out, nil
}

type memAliasRepo struct {
	mu      sync.Mutex
	nextID  uint
	aliases map[uint]*play.Alias
}

func newMemAliasRepo() *memAliasRepo {
	return &memAliasRepo{nextID: 1, aliases: map[uint]*play.Alias{}}
}

func (r *memAliasRepo) Create(_ context.Context, a *play.Alias) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.aliases {
		if existing.AliasNorm() == a.AliasNorm() && existing.Source() == a.Source() {
			return errors.NewPersistenceConflictError("alias already exists")
		}
	}
	if err := a.SetID(r.nextID); err != nil {
		return err
	}
	r.nextID++
	r.aliases[a.ID()] = a
	return nil
}

func (r *memAliasRepo) GetByNorm(_ context.Context, aliasNorm string, source vo.Source) (*play.Alias, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.aliases {
		if a.AliasNorm() == aliasNorm && a.Source() == source {
			return a, nil
		}
	}
	return nil, errors.NewNotFoundError("alias not found")
}

func (r *memAliasRepo) Update(_ context.Context, a *play.Alias) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[a.ID()] = a
	return nil
}

func (r *memAliasRepo) ListByPlayID(_ context.Context, playID uint) ([]*play.Alias, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*play.Alias
	for _, a := range r.aliases {
		if a.PlayID() == playID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAliasRepo) ListNeedingReview(_ context.Context, threshold int) ([]*play.Alias, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*play.Alias
	for _, a := range r.aliases {
		if a.NeedsReview(threshold) {
			out = append(out, a)
		}
	}
	return out, nil
}

type memLinkRepo struct {
	mu     sync.Mutex
	nextID uint
	links  map[uint]*play.SourceLink
}

func newMemLinkRepo() *memLinkRepo {
	return &memLinkRepo{nextID: 1, links: map[uint]*play.SourceLink{}}
}

func (r *memLinkRepo) Create(_ context.Context, l *play.SourceLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.links {
		if existing.Source() == l.Source() && existing.SourceID() == l.SourceID() {
			return errors.NewPersistenceConflictError("source link already exists")
		}
	}
	if err := l.SetID(r.nextID); err != nil {
		return err
	}
	r.nextID++
	r.links[l.ID()] = l
	return nil
}

func (r *memLinkRepo) GetBySourceID(_ context.Context, source vo.Source, sourceID string) (*play.SourceLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.links {
		if l.Source() == source && l.SourceID() == sourceID {
			return l, nil
		}
	}
	return nil, errors.NewNotFoundError("source link not found")
}

func (r *memLinkRepo) GetByPlayAndSource(_ context.Context, playID uint, source vo.Source) (*play.SourceLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.links {
		if l.PlayID() == playID && l.Source() == source {
			return l, nil
		}
	}
	return nil, errors.NewNotFoundError("source link not found")
}

func (r *memLinkRepo) Update(_ context.Context, l *play.SourceLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links[l.ID()] = l
	return nil
}

func (r *memLinkRepo) ListBySource(_ context.Context, source vo.Source) ([]*play.SourceLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*play.SourceLink
	for _, l := range r.links {
		if l.Source() == source {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memLinkRepo) ListAll(_ context.Context) ([]*play.SourceLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*play.SourceLink, 0, len(r.links))
	for _, l := range r.links {
		out = append(out, l)
	}
	return out, nil
}

type snapKey struct {
	playID   uint
	cityNorm string
}

type memSnapshotRepo struct {
	mu     sync.Mutex
	nextID uint
	snaps  map[snapKey]*play.Snapshot
}

func newMemSnapshotRepo() *memSnapshotRepo {
	return &memSnapshotRepo{nextID: 1, snaps: map[snapKey]*play.Snapshot{}}
}

func (r *memSnapshotRepo) Upsert(_ context.Context, s *play.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID() == 0 {
		if err := s.SetID(r.nextID); err != nil {
			return err
		}
		r.nextID++
	}
	r.snaps[snapKey{s.PlayID(), s.CityNorm()}] = s
	return nil
}

func (r *memSnapshotRepo) Get(_ context.Context, playID uint, cityNorm string) (*play.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.snaps[snapKey{playID, cityNorm}]; ok {
		return s, nil
	}
	return nil, errors.NewNotFoundError("snapshot not found")
}

func (r *memSnapshotRepo) Touch(_ context.Context, playID uint, cityNorm string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.snaps[snapKey{playID, cityNorm}]
	if !ok {
		return errors.NewNotFoundError("snapshot not found")
	}
	s.Touch(time.Now())
	return nil
}

type memEventRepo struct {
	mu     sync.Mutex
	events []*event.ChangeEvent
}

func newMemEventRepo() *memEventRepo { return &memEventRepo{} }

func (r *memEventRepo) Append(_ context.Context, e *event.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *memEventRepo) GetByID(_ context.Context, id string) (*event.ChangeEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID() == id {
			return e, nil
		}
	}
	return nil, errors.NewNotFoundError("event not found")
}

func (r *memEventRepo) ListByPlayID(_ context.Context, playID uint, limit int) ([]*event.ChangeEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*event.ChangeEvent
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		if r.events[i].PlayID() == playID {
			out = append(out, r.events[i])
		}
	}
	return out, nil
}

func (r *memEventRepo) ListSince(_ context.Context, since time.Time, limit int) ([]*event.ChangeEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*event.ChangeEvent
	for _, e := range r.events {
		if e.ObservedAt().After(since) {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type memTicketRepo struct {
	mu      sync.Mutex
	nextID  uint
	tickets []*event.Ticket
}

func newMemTicketRepo() *memTicketRepo { return &memTicketRepo{nextID: 1} }

func (r *memTicketRepo) Create(_ context.Context, t *event.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := t.SetID(r.nextID); err != nil {
		return err
	}
	r.nextID++
	r.tickets = append(r.tickets, t)
	return nil
}

func (r *memTicketRepo) GetCurrent(_ context.Context, source vo.Source, ticketID string) (*event.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.Source() == source && t.TicketID() == ticketID && t.IsCurrent() {
			return t, nil
		}
	}
	return nil, errors.NewNotFoundError("ticket not found")
}

func (r *memTicketRepo) Update(_ context.Context, t *event.Ticket) error {
	return nil
}

func (r *memTicketRepo) ListCurrentByPlayID(_ context.Context, playID uint) ([]*event.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*event.Ticket
	for _, t := range r.tickets {
		if t.PlayID() == playID && t.IsCurrent() {
			out = append(out, t)
		}
	}
	return out, nil
}

// Pipeline collaborator doubles.

type fakeClient struct {
	record *RawRecord
	err    error
	calls  int
}

func (f *fakeClient) Fetch(_ context.Context, _ vo.Source, sourceID string) (*RawRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

type fakeLocker struct {
	denied   bool
	acquires int
	releases int
}

func (f *fakeLocker) TryAcquire(_ context.Context, _ uint, _ time.Duration) (bool, error) {
	f.acquires++
	return !f.denied, nil
}

func (f *fakeLocker) Release(_ context.Context, _ uint) error {
	f.releases++
	return nil
}

type fakeCache struct {
	mu   sync.Mutex
	sets map[snapKey]json.RawMessage
}

func newFakeCache() *fakeCache { return &fakeCache{sets: map[snapKey]json.RawMessage{}} }

func (f *fakeCache) Set(_ context.Context, playID uint, cityNorm string, payload json.RawMessage, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets[snapKey{playID, cityNorm}] = payload
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, playID uint, cityNorm string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sets, snapKey{playID, cityNorm})
	return nil
}

type fakeSink struct {
	mu        sync.Mutex
	published []*event.ChangeEvent
}

func (f *fakeSink) Publish(_ context.Context, e *event.ChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, e)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

type nopTx struct{}

func (nopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopRecorder struct{}

func (nopRecorder) RecordMetric(context.Context, observability.Metric) error     { return nil }
func (nopRecorder) RecordError(context.Context, observability.ErrorRecord) error { return nil }

type captureRecorder struct {
	mu      sync.Mutex
	metrics []observability.Metric
	errors  []observability.ErrorRecord
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
