// Package dispatch provides the outbound notification queue and the retry
// policy applied to it. Entries leave the queue only on confirmed delivery
// or permanent failure; they are never silently dropped.
package dispatch

import (
	"encoding/json"
	"fmt"
	"time"

	"stagewatch/internal/shared/biztime"
)

// Status is the delivery state of a queue entry.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSending   Status = "sending"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSending, StatusDelivered, StatusFailed:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// QueueEntry is one outbound notification awaiting delivery.
type QueueEntry struct {
	id             uint
	subscriptionID uint
	eventID        string
	target         string
	payload        json.RawMessage
	status         Status
	attempts       int
	nextRetryAt    *time.Time
	lastError      string
	createdAt      time.Time
	updatedAt      time.Time
}

// NewQueueEntry enqueues a notification for a subscription endpoint.
func NewQueueEntry(subscriptionID uint, eventID, target string, payload json.RawMessage) (*QueueEntry, error) {
	if subscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if eventID == "" {
		return nil, fmt.Errorf("event ID is required")
	}
	if target == "" {
		return nil, fmt.Errorf("delivery target is required")
	}
	now := biztime.NowUTC()
	return &QueueEntry{
		subscriptionID: subscriptionID,
		eventID:        eventID,
		target:         target,
		payload:        payload,
		status:         StatusPending,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructQueueEntry rebuilds an entry from persistence.
func ReconstructQueueEntry(
	id uint,
	subscriptionID uint,
	eventID string,
	target string,
	payload json.RawMessage,
	status Status,
	attempts int,
	nextRetryAt *time.Time,
	lastError string,
	createdAt, updatedAt time.Time,
) (*QueueEntry, error) {
	if id == 0 {
		return nil, fmt.Errorf("queue entry ID cannot be zero")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid queue status: %q", status)
	}
	return &QueueEntry{
		id:             id,
		subscriptionID: subscriptionID,
		eventID:        eventID,
		target:         target,
		payload:        payload,
		status:         status,
		attempts:       attempts,
		nextRetryAt:    nextRetryAt,
		lastError:      lastError,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}, nil
}

func (q *QueueEntry) ID() uint                 { return q.id }
func (q *QueueEntry) SubscriptionID() uint     { return q.subscriptionID }
func (q *QueueEntry) EventID() string          { return q.eventID }
func (q *QueueEntry) Target() string           { return q.target }
func (q *QueueEntry) Payload() json.RawMessage { return q.payload }
func (q *QueueEntry) Status() Status           { return q.status }
func (q *QueueEntry) Attempts() int            { return q.attempts }
func (q *QueueEntry) NextRetryAt() *time.Time  { return q.nextRetryAt }
func (q *QueueEntry) LastError() string        { return q.lastError }
func (q *QueueEntry) CreatedAt() time.Time     { return q.createdAt }
func (q *QueueEntry) UpdatedAt() time.Time     { return q.updatedAt }

// SetID assigns the persistence identity after the initial insert.
func (q *QueueEntry) SetID(id uint) error {
	if q.id != 0 {
		return fmt.Errorf("queue entry ID already set")
	}
	if id == 0 {
		return fmt.Errorf("queue entry ID cannot be zero")
	}
	q.id = id
	return nil
}

// MarkSending claims the entry for an in-flight delivery attempt.
func (q *QueueEntry) MarkSending() error {
	if q.status != StatusPending {
		return fmt.Errorf("cannot send entry in status %q", q.status)
	}
	q.status = StatusSending
	q.updatedAt = biztime.NowUTC()
	return nil
}

// MarkDelivered records a confirmed delivery.
func (q *QueueEntry) MarkDelivered() {
	q.status = StatusDelivered
	q.updatedAt = biztime.NowUTC()
}

// RecordFailure records a failed attempt. When attempts reach maxAttempts
// the entry becomes permanently failed; otherwise it returns to pending
// with the given next-retry time.
func (q *QueueEntry) RecordFailure(cause string, nextRetryAt time.Time, maxAttempts int) {
	q.attempts++
	q.lastError = cause
	now := biztime.NowUTC()
	if q.attempts >= maxAttempts {
		q.status = StatusFailed
		q.nextRetryAt = nil
	} else {
		q.status = StatusPending
		retry := nextRetryAt.UTC()
		q.nextRetryAt = &retry
	}
	q.updatedAt = now
}

// IsExhausted reports whether the entry failed permanently.
func (q *QueueEntry) IsExhausted() bool {
	return q.status == StatusFailed
}

// IsDue reports whether the entry is ready for a delivery attempt.
func (q *QueueEntry) IsDue(now time.Time) bool {
	if q.status != StatusPending {
		return false
	}
	return q.nextRetryAt == nil || !now.UTC().Before(*q.nextRetryAt)
}
