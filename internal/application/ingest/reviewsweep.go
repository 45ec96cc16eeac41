package ingest

import (
	"context"

	"stagewatch/internal/domain/play"
	"stagewatch/internal/shared/config"
	"stagewatch/internal/shared/errors"
	"stagewatch/internal/shared/logger"
)

// ReviewSweep flags plays whose aliases keep failing to resolve. Aliases are
// never deleted automatically; the sweep only surfaces demotion candidates
// to the operator queue.
type ReviewSweep struct {
	plays   play.Repository
	aliases play.AliasRepository
	cfg     config.ResolverConfig
	logger  logger.Interface
}

func NewReviewSweep(plays play.Repository, aliases play.AliasRepository, cfg config.ResolverConfig, log logger.Interface) *ReviewSweep {
	return &ReviewSweep{
		plays:   plays,
		aliases: aliases,
		cfg:     cfg,
		logger:  log.Named("review_sweep"),
	}
}

// Execute marks the play of every over-threshold alias pending review and
// returns how many plays were flagged.
func (s *ReviewSweep) Execute(ctx context.Context) (int, error) {
	if s.cfg.NoResponseDemote <= 0 {
		return 0, nil
	}

	stale, err := s.aliases.ListNeedingReview(ctx, s.cfg.NoResponseDemote)
	if err != nil {
		return 0, err
	}

	flagged := 0
	seen := make(map[uint]bool)
	for _, a := range stale {
		if seen[a.PlayID()] {
			continue
		}
		seen[a.PlayID()] = true

		p, err := s.plays.GetByID(ctx, a.PlayID())
		if err != nil {
			if errors.IsNotFound(err) {
				s.logger.Warnw("stale alias points at missing play", "alias_id", a.ID(), "play_id", a.PlayID())
				continue
			}
			return flagged, err
		}
		if p.PendingReview() {
			continue
		}

		p.MarkPendingReview()
		if err := s.plays.Update(ctx, p); err != nil {
			return flagged, err
		}
		flagged++
		s.logger.Infow("play flagged for review",
			"play_id", p.ID(),
			"alias", a.Alias(),
			"no_response_count", a.NoResponseCount(),
		)
	}
	return flagged, nil
}
