// Package ingest implements the poll side of the pipeline: fetching provider
// records, resolving them onto the play catalog, diffing against the stored
// fingerprint, and committing snapshots, events, and tickets atomically.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"stagewatch/internal/domain/event"
	vo "stagewatch/internal/domain/play/valueobjects"
)

// RawTicket is one bookable unit inside a provider record, already lifted
// out of the provider's wire format by the source client.
type RawTicket struct {
	TicketID  string
	Title     string
	Location  string
	StartTime *time.Time
	Status    string
	Price     *float64
	Total     *int
	Left      *int
	Payload   json.RawMessage
}

// RawRecord is one provider record after envelope decoding. Payload is the
// provider's canonical summary object; the diff engine fingerprints it and
// reads its semantic fields.
type RawRecord struct {
	SourceID string
	Title    string
	City     string
	Payload  json.RawMessage
	Tickets  []RawTicket
}

// SourceClient fetches one provider record. Implementations own the wire
// protocol, retries, and the circuit breaker; callers only see transient or
// permanent source errors.
type SourceClient interface {
	Fetch(ctx context.Context, src vo.Source, sourceID string) (*RawRecord, error)
}

// LinkLocker provides per-link mutual exclusion across poller instances.
type LinkLocker interface {
	TryAcquire(ctx context.Context, linkID uint, ttl time.Duration) (bool, error)
	Release(ctx context.Context, linkID uint) error
}

// SnapshotCache is the fast-path copy of the durable snapshot row. The poll
// cycle refreshes it after a successful commit; readers fall back to the
// durable row on a miss.
type SnapshotCache interface {
	Set(ctx context.Context, playID uint, cityNorm string, payload json.RawMessage, ttl time.Duration) error
	Invalidate(ctx context.Context, playID uint, cityNorm string) error
}

// EventSink receives committed change events for fan-out. Publishing happens
// strictly after the durable commit; a sink failure never rolls the cycle
// back.
type EventSink interface {
	Publish(ctx context.Context, e *event.ChangeEvent) error
}
