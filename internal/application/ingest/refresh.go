package ingest

import (
	"context"
	"time"

	"stagewatch/internal/domain/play"
	vo "stagewatch/internal/domain/play/valueobjects"
	"stagewatch/internal/shared/goroutine"
	"stagewatch/internal/shared/logger"
)

// refreshTimeout bounds one out-of-band cycle so a stuck provider cannot pin
// the goroutine.
const refreshTimeout = 2 * time.Minute

// RefreshService runs one link's poll cycle out of band, ahead of its
// scheduled slot. The cycle itself still takes the per-link lock, so a
// manual refresh cannot race the scheduler.
type RefreshService struct {
	links  play.SourceLinkRepository
	cycle  *PollCycle
	logger logger.Interface
}

func NewRefreshService(links play.SourceLinkRepository, cycle *PollCycle, log logger.Interface) *RefreshService {
	return &RefreshService{
		links:  links,
		cycle:  cycle,
		logger: log.Named("refresh"),
	}
}

// Trigger validates the link and starts its cycle in the background. The
// caller gets the link ID back immediately.
func (s *RefreshService) Trigger(ctx context.Context, source vo.Source, sourceID string) (uint, error) {
	link, err := s.links.GetBySourceID(ctx, source, sourceID)
	if err != nil {
		return 0, err
	}

	goroutine.SafeGo(s.logger, "manual-refresh", func() {
		runCtx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		result, err := s.cycle.RunLink(runCtx, link)
		if err != nil {
			s.logger.Errorw("manual refresh failed", "link_id", link.ID(), "error", err)
			return
		}
		s.logger.Infow("manual refresh completed", "link_id", link.ID(), "outcome", result.Outcome)
	})

	return link.ID(), nil
}
