package dispatch

import (
	"context"
	"encoding/json"
	"time"
)

// Repository defines persistence for the send queue.
type Repository interface {
	// Enqueue persists a new queue entry.
	Enqueue(ctx context.Context, e *QueueEntry) error

	// ClaimDue atomically moves up to limit due pending entries to the
	// sending state and returns them. Two concurrent pumps never claim the
	// same entry.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*QueueEntry, error)

	// Update updates an existing entry.
	Update(ctx context.Context, e *QueueEntry) error

	// Remove deletes a delivered entry.
	Remove(ctx context.Context, id uint) error

	// CountPending returns the queue backlog size.
	CountPending(ctx context.Context) (int64, error)

	// ListFailed returns permanently failed entries for inspection.
	ListFailed(ctx context.Context, limit int) ([]*QueueEntry, error)
}

// Transport delivers one payload to one target. Implementations own the
// wire protocol; the queue owns retries and backpressure.
type Transport interface {
	Send(ctx context.Context, target string, payload json.RawMessage) error
}
