// Package play provides the canonical show catalog: plays, their observed
// aliases, and their bindings to external provider records.
package play

import (
	"fmt"
	"time"

	"stagewatch/internal/shared/biztime"
	"stagewatch/internal/shared/normalize"
)

// Play represents the canonical identity of a trackable show. Its normalized
// name is the resolution key: two plays must not share a normalized name
// unless they are disambiguated by default city.
type Play struct {
	id              uint
	name            string
	nameNorm        string
	defaultCityNorm string
	note            string
	pendingReview   bool
	createdAt       time.Time
	updatedAt       time.Time
}

// NewPlay creates a play from an observed display name. The normalized name
// is derived here and never set directly.
func NewPlay(name, city string) (*Play, error) {
	nameNorm := normalize.Title(name)
	if nameNorm == "" {
		return nil, fmt.Errorf("play name is empty after normalization: %q", name)
	}
	now := biztime.NowUTC()
	return &Play{
		name:            name,
		nameNorm:        nameNorm,
		defaultCityNorm: normalize.City(city),
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructPlay rebuilds a play from persistence.
func ReconstructPlay(
	id uint,
	name string,
	nameNorm string,
	defaultCityNorm string,
	note string,
	pendingReview bool,
	createdAt, updatedAt time.Time,
) (*Play, error) {
	if id == 0 {
		return nil, fmt.Errorf("play ID cannot be zero")
	}
	if nameNorm == "" {
		return nil, fmt.Errorf("play normalized name is required")
	}
	return &Play{
		id:              id,
		name:            name,
		nameNorm:        nameNorm,
		defaultCityNorm: defaultCityNorm,
		note:            note,
		pendingReview:   pendingReview,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}, nil
}

func (p *Play) ID() uint                { return p.id }
func (p *Play) Name() string            { return p.name }
func (p *Play) NameNorm() string        { return p.nameNorm }
func (p *Play) DefaultCityNorm() string { return p.defaultCityNorm }
func (p *Play) Note() string            { return p.note }
func (p *Play) PendingReview() bool     { return p.pendingReview }
func (p *Play) CreatedAt() time.Time    { return p.createdAt }
func (p *Play) UpdatedAt() time.Time    { return p.updatedAt }

// SetID assigns the persistence identity after the initial insert.
func (p *Play) SetID(id uint) error {
	if p.id != 0 {
		return fmt.Errorf("play ID already set")
	}
	if id == 0 {
		return fmt.Errorf("play ID cannot be zero")
	}
	p.id = id
	return nil
}

// MarkPendingReview flags a play created below the resolution confidence
// threshold so operators can confirm or merge it later.
func (p *Play) MarkPendingReview() {
	p.pendingReview = true
	p.updatedAt = biztime.NowUTC()
}

// ClearReview removes the review flag after an operator confirms the play.
func (p *Play) ClearReview() {
	p.pendingReview = false
	p.updatedAt = biztime.NowUTC()
}

// UpdateNote replaces the free-text operator note.
func (p *Play) UpdateNote(note string) {
	p.note = note
	p.updatedAt = biztime.NowUTC()
}
