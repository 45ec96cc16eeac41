package ingest

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"stagewatch/internal/domain/play"
	"stagewatch/internal/shared/biztime"
	"stagewatch/internal/shared/config"
	"stagewatch/internal/shared/errors"
	"stagewatch/internal/shared/logger"
)

// PollPump walks the registered source links once per scheduler tick and
// runs each due link through the poll cycle on a bounded worker pool. Links
// are staggered inside the tick so a provider never sees the whole catalog
// at once.
type PollPump struct {
	links  play.SourceLinkRepository
	cycle  *PollCycle
	cfg    config.PollerConfig
	logger logger.Interface

	mu       sync.Mutex
	cooldown map[uint]time.Time
}

func NewPollPump(links play.SourceLinkRepository, cycle *PollCycle, cfg config.PollerConfig, log logger.Interface) *PollPump {
	return &PollPump{
		links:    links,
		cycle:    cycle,
		cfg:      cfg,
		logger:   log.Named("poll_pump"),
		cooldown: make(map[uint]time.Time),
	}
}

// Execute runs one pump pass and returns how many links produced an event.
func (p *PollPump) Execute(ctx context.Context) (int, error) {
	links, err := p.links.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	now := biztime.NowUTC()
	due := make([]*play.SourceLink, 0, len(links))
	for _, l := range links {
		if p.isDue(l, now) {
			due = append(due, l)
		}
	}
	if len(due) == 0 {
		return 0, nil
	}

	workers := p.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		wg     sync.WaitGroup
		sem    = make(chan struct{}, workers)
		mu     sync.Mutex
		events int
	)
	for _, link := range due {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(l *play.SourceLink) {
			defer wg.Done()
			defer func() { <-sem }()

			if !p.waitStagger(ctx, l) {
				return
			}
			result, err := p.cycle.RunLink(ctx, l)
			if err != nil {
				p.noteFailure(l.ID(), err)
				return
			}
			p.clearCooldown(l.ID())
			if result != nil && result.Outcome == OutcomeEvent {
				mu.Lock()
				events++
				mu.Unlock()
			}
		}(link)
	}
	wg.Wait()

	return events, ctx.Err()
}

// isDue filters out links synced within the poll interval, links persisted
// in error state still inside the cooldown, and links cooling down in memory
// after a transient failure.
func (p *PollPump) isDue(l *play.SourceLink, now time.Time) bool {
	if last := l.LastSyncAt(); last != nil && now.Sub(*last) < p.cfg.Interval {
		return false
	}

	// A permanently failed link is retried at the error cooldown cadence
	// only. A manual refresh or a successful sync clears the state.
	if l.InError() {
		at := l.LastErrorAt()
		if at == nil || now.Sub(*at) < p.cfg.ErrorCooldown {
			return false
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if until, ok := p.cooldown[l.ID()]; ok && now.Before(until) {
		return false
	}
	return true
}

// waitStagger sleeps the link's deterministic offset inside the stagger
// window. Returns false when the context ends first.
func (p *PollPump) waitStagger(ctx context.Context, l *play.SourceLink) bool {
	offset := staggerOffset(l.ID(), p.cfg.StaggerWindow)
	if offset <= 0 {
		return true
	}
	timer := time.NewTimer(offset)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (p *PollPump) noteFailure(linkID uint, err error) {
	if !errors.IsTransient(err) {
		return
	}
	p.mu.Lock()
	p.cooldown[linkID] = biztime.NowUTC().Add(p.cfg.ErrorCooldown)
	p.mu.Unlock()
	p.logger.Debugw("link cooling down", "link_id", linkID, "cooldown", p.cfg.ErrorCooldown)
}

func (p *PollPump) clearCooldown(linkID uint) {
	p.mu.Lock()
	delete(p.cooldown, linkID)
	p.mu.Unlock()
}

// staggerOffset hashes the link ID into [0, window) so a link keeps the same
// slot across ticks.
func staggerOffset(linkID uint, window time.Duration) time.Duration {
	if window <= 0 {
		return 0
	}
	h := fnv.New32a()
	var buf [4]byte
	buf[0] = byte(linkID)
	buf[1] = byte(linkID >> 8)
	buf[2] = byte(linkID >> 16)
	buf[3] = byte(linkID >> 24)
	h.Write(buf[:])
	return time.Duration(h.Sum32()) % window
}
