package event

import (
	"context"
	"time"

	vo "stagewatch/internal/domain/play/valueobjects"
)

// Repository defines persistence for the change event log. Events are
// append-only; there is deliberately no update or delete.
type Repository interface {
	// Append persists a new change event.
	Append(ctx context.Context, e *ChangeEvent) error

	// GetByID retrieves an event by ID.
	GetByID(ctx context.Context, id string) (*ChangeEvent, error)

	// ListByPlayID returns the newest events for a play.
	ListByPlayID(ctx context.Context, playID uint, limit int) ([]*ChangeEvent, error)

	// ListSince returns events observed after the given instant, oldest
	// first. Used by downstream consumers replaying the log.
	ListSince(ctx context.Context, since time.Time, limit int) ([]*ChangeEvent, error)
}

// TicketRepository defines persistence for tickets.
type TicketRepository interface {
	// Create persists a new ticket row.
	Create(ctx context.Context, t *Ticket) error

	// GetCurrent retrieves the live (non-superseded) row for a ticket ID.
	GetCurrent(ctx context.Context, source vo.Source, ticketID string) (*Ticket, error)

	// Update updates an existing ticket row.
	Update(ctx context.Context, t *Ticket) error

	// ListCurrentByPlayID returns the live tickets of one play.
	ListCurrentByPlayID(ctx context.Context, playID uint) ([]*Ticket, error)
}
