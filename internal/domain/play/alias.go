package play

import (
	"fmt"
	"math"
	"time"

	vo "stagewatch/internal/domain/play/valueobjects"
	"stagewatch/internal/shared/biztime"
	"stagewatch/internal/shared/normalize"
)

// Alias weight conventions. Curated aliases always win ties; fuzzy-accepted
// aliases carry a weight derived from the match confidence.
const (
	WeightCurated    = 100
	WeightSearchName = 50
)

// WeightFromConfidence converts a resolution confidence in [0,1] to an
// alias weight.
func WeightFromConfidence(confidence float64) int {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 100
	}
	return int(math.Round(confidence * 100))
}

// Alias is an observed alternate name bound to exactly one play, scoped to
// the source that produced it. (normalized alias, source) is unique.
type Alias struct {
	id              uint
	playID          uint
	alias           string
	aliasNorm       string
	source          vo.Source
	weight          int
	noResponseCount int
	lastUsedAt      *time.Time
	createdAt       time.Time
	updatedAt       time.Time
}

// NewAlias creates an alias for a play. The normalized form is derived from
// the alias text.
func NewAlias(playID uint, alias string, source vo.Source, weight int) (*Alias, error) {
	if playID == 0 {
		return nil, fmt.Errorf("play ID is required")
	}
	if !source.IsValid() {
		return nil, fmt.Errorf("invalid alias source: %q", source)
	}
	aliasNorm := normalize.Text(alias)
	if aliasNorm == "" {
		return nil, fmt.Errorf("alias is empty after normalization: %q", alias)
	}
	if weight < 0 || weight > 100 {
		return nil, fmt.Errorf("alias weight out of range: %d", weight)
	}
	now := biztime.NowUTC()
	return &Alias{
		playID:    playID,
		alias:     alias,
		aliasNorm: aliasNorm,
		source:    source,
		weight:    weight,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructAlias rebuilds an alias from persistence.
func ReconstructAlias(
	id uint,
	playID uint,
	alias string,
	aliasNorm string,
	source vo.Source,
	weight int,
	noResponseCount int,
	lastUsedAt *time.Time,
	createdAt, updatedAt time.Time,
) (*Alias, error) {
	if id == 0 {
		return nil, fmt.Errorf("alias ID cannot be zero")
	}
	if playID == 0 {
		return nil, fmt.Errorf("play ID is required")
	}
	if aliasNorm == "" {
		return nil, fmt.Errorf("normalized alias is required")
	}
	return &Alias{
		id:              id,
		playID:          playID,
		alias:           alias,
		aliasNorm:       aliasNorm,
		source:          source,
		weight:          weight,
		noResponseCount: noResponseCount,
		lastUsedAt:      lastUsedAt,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}, nil
}

func (a *Alias) ID() uint               { return a.id }
func (a *Alias) PlayID() uint           { return a.playID }
func (a *Alias) Alias() string          { return a.alias }
func (a *Alias) AliasNorm() string      { return a.aliasNorm }
func (a *Alias) Source() vo.Source      { return a.source }
func (a *Alias) Weight() int            { return a.weight }
func (a *Alias) NoResponseCount() int   { return a.noResponseCount }
func (a *Alias) LastUsedAt() *time.Time { return a.lastUsedAt }
func (a *Alias) CreatedAt() time.Time   { return a.createdAt }
func (a *Alias) UpdatedAt() time.Time   { return a.updatedAt }

// SetID assigns the persistence identity after the initial insert.
func (a *Alias) SetID(id uint) error {
	if a.id != 0 {
		return fmt.Errorf("alias ID already set")
	}
	if id == 0 {
		return fmt.Errorf("alias ID cannot be zero")
	}
	a.id = id
	return nil
}

// RecordUse bumps the last-used timestamp and clears the no-response
// counter; the alias just resolved a live record.
func (a *Alias) RecordUse() {
	now := biztime.NowUTC()
	a.lastUsedAt = &now
	a.noResponseCount = 0
	a.updatedAt = now
}

// RecordNoResponse increments the consecutive no-match counter. The alias is
// never deleted automatically; crossing the demotion threshold only flags it
// for operator review.
func (a *Alias) RecordNoResponse() {
	a.noResponseCount++
	a.updatedAt = biztime.NowUTC()
}

// NeedsReview reports whether the alias has failed to resolve often enough
// to be a demotion candidate.
func (a *Alias) NeedsReview(threshold int) bool {
	return threshold > 0 && a.noResponseCount >= threshold
}
