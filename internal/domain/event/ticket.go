package event

import (
	"encoding/json"
	"fmt"
	"time"

	vo "stagewatch/internal/domain/play/valueobjects"
	"stagewatch/internal/shared/biztime"
)

// TicketStatus is the sale state a provider reports for one bookable unit.
type TicketStatus string

const (
	TicketStatusOnSale    TicketStatus = "on_sale"
	TicketStatusPending   TicketStatus = "pending"
	TicketStatusSoldOut   TicketStatus = "sold_out"
	TicketStatusCancelled TicketStatus = "cancelled"
	TicketStatusUnknown   TicketStatus = "unknown"
)

func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusOnSale, TicketStatusPending, TicketStatusSoldOut, TicketStatusCancelled, TicketStatusUnknown:
		return true
	}
	return false
}

func (s TicketStatus) String() string { return string(s) }

// Ticket is a bookable unit surfaced by a change event. Tickets are owned by
// the play/source pairing that produced them and are superseded, never
// deleted, when a newer payload arrives with a different fingerprint.
type Ticket struct {
	id           uint
	ticketID     string
	playID       uint
	source       vo.Source
	title        string
	location     string
	startTime    *time.Time
	status       TicketStatus
	price        *float64
	total        *int
	left         *int
	payload      json.RawMessage
	supersededAt *time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

// NewTicket creates a ticket from a provider payload.
func NewTicket(
	ticketID string,
	playID uint,
	source vo.Source,
	title string,
	location string,
	startTime *time.Time,
	status TicketStatus,
	price *float64,
	total, left *int,
	payload json.RawMessage,
) (*Ticket, error) {
	if ticketID == "" {
		return nil, fmt.Errorf("ticket ID is required")
	}
	if playID == 0 {
		return nil, fmt.Errorf("play ID is required")
	}
	if !source.IsValid() {
		return nil, fmt.Errorf("invalid ticket source: %q", source)
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid ticket status: %q", status)
	}
	now := biztime.NowUTC()
	return &Ticket{
		ticketID:  ticketID,
		playID:    playID,
		source:    source,
		title:     title,
		location:  location,
		startTime: startTime,
		status:    status,
		price:     price,
		total:     total,
		left:      left,
		payload:   payload,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructTicket rebuilds a ticket from persistence.
func ReconstructTicket(
	id uint,
	ticketID string,
	playID uint,
	source vo.Source,
	title string,
	location string,
	startTime *time.Time,
	status TicketStatus,
	price *float64,
	total, left *int,
	payload json.RawMessage,
	supersededAt *time.Time,
	createdAt, updatedAt time.Time,
) (*Ticket, error) {
	if id == 0 {
		return nil, fmt.Errorf("ticket row ID cannot be zero")
	}
	if ticketID == "" {
		return nil, fmt.Errorf("ticket ID is required")
	}
	return &Ticket{
		id:           id,
		ticketID:     ticketID,
		playID:       playID,
		source:       source,
		title:        title,
		location:     location,
		startTime:    startTime,
		status:       status,
		price:        price,
		total:        total,
		left:         left,
		payload:      payload,
		supersededAt: supersededAt,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}, nil
}

func (t *Ticket) ID() uint                 { return t.id }
func (t *Ticket) TicketID() string         { return t.ticketID }
func (t *Ticket) PlayID() uint             { return t.playID }
func (t *Ticket) Source() vo.Source        { return t.source }
func (t *Ticket) Title() string            { return t.title }
func (t *Ticket) Location() string         { return t.location }
func (t *Ticket) StartTime() *time.Time    { return t.startTime }
func (t *Ticket) Status() TicketStatus     { return t.status }
func (t *Ticket) Price() *float64          { return t.price }
func (t *Ticket) Total() *int              { return t.total }
func (t *Ticket) Left() *int               { return t.left }
func (t *Ticket) Payload() json.RawMessage { return t.payload }
func (t *Ticket) SupersededAt() *time.Time { return t.supersededAt }
func (t *Ticket) CreatedAt() time.Time     { return t.createdAt }
func (t *Ticket) UpdatedAt() time.Time     { return t.updatedAt }

// SetID assigns the persistence identity after the initial insert.
func (t *Ticket) SetID(id uint) error {
	if t.id != 0 {
		return fmt.Errorf("ticket row ID already set")
	}
	if id == 0 {
		return fmt.Errorf("ticket row ID cannot be zero")
	}
	t.id = id
	return nil
}

// Supersede marks this ticket row as replaced by a newer payload.
func (t *Ticket) Supersede(at time.Time) {
	at = at.UTC()
	t.supersededAt = &at
	t.updatedAt = at
}

// IsCurrent reports whether this row is the live version of the ticket.
func (t *Ticket) IsCurrent() bool {
	return t.supersededAt == nil
}
