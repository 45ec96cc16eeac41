// Package event provides the immutable change log: one record per detected
// change to a play's ticketing state, plus the tickets those changes
// surfaced.
package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	vo "stagewatch/internal/domain/play/valueobjects"
	"stagewatch/internal/shared/biztime"
)

// FieldChange records one field's transition inside a change delta.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Delta maps changed field names to their transitions. Only fields that
// actually changed appear.
type Delta map[string]FieldChange

// ChangeEvent is an immutable record of one detected change. It is created
// once by the diff engine inside the poll cycle's transaction and never
// mutated afterwards.
type ChangeEvent struct {
	id         string
	playID     uint
	source     vo.Source
	cityNorm   string
	kind       Kind
	observedAt time.Time
	ticketID   string
	delta      Delta
	createdAt  time.Time
}

// NewChangeEvent creates a change event for a play. ticketID is optional
// and references the ticket that triggered a terminal transition.
func NewChangeEvent(playID uint, source vo.Source, cityNorm string, kind Kind, ticketID string, delta Delta) (*ChangeEvent, error) {
	if playID == 0 {
		return nil, fmt.Errorf("play ID is required")
	}
	if !source.IsValid() {
		return nil, fmt.Errorf("invalid event source: %q", source)
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid change kind: %q", kind)
	}
	now := biztime.NowUTC()
	return &ChangeEvent{
		id:         uuid.NewString(),
		playID:     playID,
		source:     source,
		cityNorm:   cityNorm,
		kind:       kind,
		observedAt: now,
		ticketID:   ticketID,
		delta:      delta,
		createdAt:  now,
	}, nil
}

// ReconstructChangeEvent rebuilds an event from persistence.
func ReconstructChangeEvent(
	id string,
	playID uint,
	source vo.Source,
	cityNorm string,
	kind Kind,
	observedAt time.Time,
	ticketID string,
	delta Delta,
	createdAt time.Time,
) (*ChangeEvent, error) {
	if id == "" {
		return nil, fmt.Errorf("event ID is required")
	}
	if playID == 0 {
		return nil, fmt.Errorf("play ID is required")
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid change kind: %q", kind)
	}
	return &ChangeEvent{
		id:         id,
		playID:     playID,
		source:     source,
		cityNorm:   cityNorm,
		kind:       kind,
		observedAt: observedAt,
		ticketID:   ticketID,
		delta:      delta,
		createdAt:  createdAt,
	}, nil
}

func (e *ChangeEvent) ID() string            { return e.id }
func (e *ChangeEvent) PlayID() uint          { return e.playID }
func (e *ChangeEvent) Source() vo.Source     { return e.source }
func (e *ChangeEvent) CityNorm() string      { return e.cityNorm }
func (e *ChangeEvent) Kind() Kind            { return e.kind }
func (e *ChangeEvent) ObservedAt() time.Time { return e.observedAt }
func (e *ChangeEvent) TicketID() string      { return e.ticketID }
func (e *ChangeEvent) CreatedAt() time.Time  { return e.createdAt }

// Delta returns a copy so callers cannot mutate the stored record.
func (e *ChangeEvent) Delta() Delta {
	if e.delta == nil {
		return nil
	}
	out := make(Delta, len(e.delta))
	for k, v := range e.delta {
		out[k] = v
	}
	return out
}
