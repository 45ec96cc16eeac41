package ingest

import (
	"context"
	"fmt"

	"stagewatch/internal/domain/observability"
	"stagewatch/internal/domain/play"
	vo "stagewatch/internal/domain/play/valueobjects"
	"stagewatch/internal/shared/biztime"
	"stagewatch/internal/shared/config"
	"stagewatch/internal/shared/errors"
	"stagewatch/internal/shared/logger"
	"stagewatch/internal/shared/normalize"
	"stagewatch/internal/shared/textmatch"
)

// Resolution binds a raw provider record to a catalog play.
type Resolution struct {
	Play       *play.Play
	Link       *play.SourceLink
	Confidence float64
	CreatedNew bool
}

// Resolver maps raw records onto the play catalog: exact link, then alias,
// then fuzzy title match, then a new pending-review play. Every resolution
// leaves a source link behind so the next poll takes the fast path.
type Resolver struct {
	plays    play.Repository
	aliases  play.AliasRepository
	links    play.SourceLinkRepository
	recorder observability.Recorder
	cfg      config.ResolverConfig
	logger   logger.Interface
}

func NewResolver(
	plays play.Repository,
	aliases play.AliasRepository,
	links play.SourceLinkRepository,
	recorder observability.Recorder,
	cfg config.ResolverConfig,
	log logger.Interface,
) *Resolver {
	return &Resolver{
		plays:    plays,
		aliases:  aliases,
		links:    links,
		recorder: recorder,
		cfg:      cfg,
		logger:   log.Named("resolver"),
	}
}

// Resolve runs the resolution ladder for one record. Concurrent resolvers
// racing on alias or link creation lose to the unique constraint and adopt
// the winner's row.
func (r *Resolver) Resolve(ctx context.Context, source vo.Source, rec *RawRecord) (*Resolution, error) {
	if rec.SourceID == "" {
		return nil, errors.NewValidationError("record has no source ID")
	}

	// Step 1: an existing link is authoritative.
	link, err := r.links.GetBySourceID(ctx, source, rec.SourceID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}
	if link != nil {
		p, err := r.plays.GetByID(ctx, link.PlayID())
		if err != nil {
			return nil, fmt.Errorf("link %d points at missing play %d: %w", link.ID(), link.PlayID(), err)
		}
		link.RefreshObserved(rec.Title, rec.City)
		if err := r.links.Update(ctx, link); err != nil {
			return nil, err
		}
		return &Resolution{Play: p, Link: link, Confidence: 1.0}, nil
	}

	// Step 2: alias lookup on the normalized title, scoped to the source.
	aliasNorm := normalize.Text(rec.Title)
	if aliasNorm != "" {
		alias, err := r.aliases.GetByNorm(ctx, aliasNorm, source)
		if err != nil && !errors.IsNotFound(err) {
			return nil, err
		}
		if alias != nil {
			p, err := r.plays.GetByID(ctx, alias.PlayID())
			if err != nil {
				return nil, fmt.Errorf("alias %d points at missing play %d: %w", alias.ID(), alias.PlayID(), err)
			}
			alias.RecordUse()
			if err := r.aliases.Update(ctx, alias); err != nil {
				return nil, err
			}
			conf := float64(alias.Weight()) / 100
			link, err := r.bindLink(ctx, p.ID(), source, rec, conf)
			if err != nil {
				return nil, err
			}
			return &Resolution{Play: p, Link: link, Confidence: conf}, nil
		}
	}

	// Step 3: fuzzy match over the catalog.
	titleNorm := normalize.Title(rec.Title)
	best, second, bestPlay, err := r.scanCatalog(ctx, titleNorm)
	if err != nil {
		return nil, err
	}
	if bestPlay != nil && best >= r.cfg.AcceptThreshold {
		if best-second < r.cfg.NearTieMargin {
			// Two plausible plays. Guessing wrong poisons the alias table,
			// so register a fresh play and let an operator merge it.
			r.logger.Warnw("ambiguous fuzzy match, creating pending play",
				"title", rec.Title, "best", best, "second", second, "best_play_id", bestPlay.ID())
			r.recordAmbiguity(ctx, source, rec, best, second, bestPlay.ID())
			return r.createPlay(ctx, source, rec, true)
		}
		if err := r.recordFuzzyAlias(ctx, bestPlay.ID(), rec.Title, source, best); err != nil {
			return nil, err
		}
		link, err := r.bindLink(ctx, bestPlay.ID(), source, rec, best)
		if err != nil {
			return nil, err
		}
		r.logger.Infow("fuzzy match accepted",
			"title", rec.Title, "play_id", bestPlay.ID(), "score", best)
		return &Resolution{Play: bestPlay, Link: link, Confidence: best}, nil
	}

	// Step 4: nothing matched, register a new play.
	return r.createPlay(ctx, source, rec, true)
}

// scanCatalog scores the normalized title against every play and returns the
// best score, the runner-up score, and the best play. A play scores through
// its canonical name or any of its aliases, whichever is closer; curated
// short forms often match where the full name does not.
func (r *Resolver) scanCatalog(ctx context.Context, titleNorm string) (best, second float64, bestPlay *play.Play, err error) {
	if titleNorm == "" {
		return 0, 0, nil, nil
	}
	plays, err := r.plays.ListAll(ctx)
	if err != nil {
		return 0, 0, nil, err
	}
	for _, p := range plays {
		score := textmatch.Score(titleNorm, p.NameNorm())
		aliases, err := r.aliases.ListByPlayID(ctx, p.ID())
		if err != nil {
			return 0, 0, nil, err
		}
		for _, a := range aliases {
			if s := textmatch.Score(titleNorm, a.AliasNorm()); s > score {
				score = s
			}
		}
		if score > best {
			second = best
			best = score
			bestPlay = p
		} else if score > second {
			second = score
		}
	}
	return best, second, bestPlay, nil
}

// NoteNoResponse bumps the no-response counter on the alias behind a link
// whose provider record permanently yields nothing. Counted misses feed the
// review sweep; the next successful resolution through the alias resets the
// counter.
func (r *Resolver) NoteNoResponse(ctx context.Context, link *play.SourceLink) error {
	aliasNorm := normalize.Text(link.TitleAtSource())
	if aliasNorm == "" {
		return nil
	}
	alias, err := r.aliases.GetByNorm(ctx, aliasNorm, link.Source())
	if err != nil {
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	}
	alias.RecordNoResponse()
	return r.aliases.Update(ctx, alias)
}

// recordAmbiguity writes the near-tie through the failure taxonomy so the
// operator queue sees why the record was held back.
func (r *Resolver) recordAmbiguity(ctx context.Context, source vo.Source, rec *RawRecord, best, second float64, bestPlayID uint) {
	appErr := errors.NewResolutionAmbiguousError(
		fmt.Sprintf("title %q has near-tie fuzzy matches", rec.Title),
		fmt.Sprintf("play %d scored %.2f, runner-up %.2f", bestPlayID, best, second),
	)
	e := observability.ErrorRecord{
		Scope:   "resolver",
		Code:    string(appErr.Type),
		Message: appErr.Error(),
		Context: map[string]string{"source": source.String(), "source_id": rec.SourceID},
		At:      biztime.NowUTC(),
	}
	if err := r.recorder.RecordError(context.WithoutCancel(ctx), e); err != nil {
		r.logger.Warnw("ambiguity record failed", "error", err)
	}
}

// createPlay registers a play for an unresolvable record. Resolver-created
// plays always carry the review flag; only an operator clears it.
func (r *Resolver) createPlay(ctx context.Context, source vo.Source, rec *RawRecord, pendingReview bool) (*Resolution, error) {
	p, err := play.NewPlay(rec.Title, rec.City)
	if err != nil {
		return nil, errors.NewPermanentSourceError("record title unusable", err.Error())
	}
	if pendingReview {
		p.MarkPendingReview()
	}
	if err := r.plays.Create(ctx, p); err != nil {
		if errors.IsPersistenceConflict(err) {
			existing, qerr := r.plays.GetByNameNorm(ctx, p.NameNorm(), p.DefaultCityNorm())
			if qerr != nil {
				return nil, qerr
			}
			p = existing
		} else {
			return nil, err
		}
	}

	if alias, aerr := play.NewAlias(p.ID(), rec.Title, source, play.WeightSearchName); aerr == nil {
		if err := r.aliases.Create(ctx, alias); err != nil && !errors.IsPersistenceConflict(err) {
			return nil, err
		}
	}

	link, err := r.bindLink(ctx, p.ID(), source, rec, 1.0)
	if err != nil {
		return nil, err
	}
	r.logger.Infow("registered new play", "play_id", p.ID(), "title", rec.Title, "source", source)
	return &Resolution{Play: p, Link: link, Confidence: 1.0, CreatedNew: true}, nil
}

// recordFuzzyAlias persists the observed title as an alias weighted by the
// match confidence. Losing the creation race just means the alias exists.
func (r *Resolver) recordFuzzyAlias(ctx context.Context, playID uint, title string, source vo.Source, confidence float64) error {
	alias, err := play.NewAlias(playID, title, source, play.WeightFromConfidence(confidence))
	if err != nil {
		return nil
	}
	if err := r.aliases.Create(ctx, alias); err != nil && !errors.IsPersistenceConflict(err) {
		return err
	}
	return nil
}

// bindLink upserts the (source, sourceID) binding. On a creation race the
// existing row wins and is refreshed instead.
func (r *Resolver) bindLink(ctx context.Context, playID uint, source vo.Source, rec *RawRecord, confidence float64) (*play.SourceLink, error) {
	link, err := play.NewSourceLink(playID, source, rec.SourceID, rec.Title, rec.City, confidence)
	if err != nil {
		return nil, errors.NewValidationError("cannot bind source record", err.Error())
	}
	if err := r.links.Create(ctx, link); err != nil {
		if !errors.IsPersistenceConflict(err) {
			return nil, err
		}
		existing, qerr := r.links.GetBySourceID(ctx, source, rec.SourceID)
		if qerr != nil {
			return nil, qerr
		}
		existing.RefreshObserved(rec.Title, rec.City)
		if uerr := r.links.Update(ctx, existing); uerr != nil {
			return nil, uerr
		}
		return existing, nil
	}
	return link, nil
}
