package ingest

import (
	"encoding/json"
	"time"

	"stagewatch/internal/domain/event"
	"stagewatch/internal/domain/play"
	"stagewatch/internal/shared/errors"
)

// Change is the diff engine's verdict on one freshly fetched payload.
type Change struct {
	Fingerprint string
	Unchanged   bool
	Kind        event.Kind
	Delta       event.Delta
}

// payloadFields are the semantic fields the classifier reads out of a
// provider summary payload. Unknown fields are ignored; absent fields stay
// nil and never produce a delta entry.
type payloadFields struct {
	Status    string     `json:"status"`
	Title     string     `json:"title"`
	Location  string     `json:"location"`
	StartTime *time.Time `json:"start_time"`
	Price     *float64   `json:"price"`
	Total     *int       `json:"total"`
	Left      *int       `json:"left"`
}

// DiffEngine classifies a new payload against the link's stored fingerprint
// and the previous snapshot payload. It is pure: no clocks, no stores.
type DiffEngine struct{}

func NewDiffEngine() *DiffEngine { return &DiffEngine{} }

// Diff compares the fetched payload with what the link last ingested. prev is
// the previous snapshot payload, nil when none exists. At most one change is
// produced per call.
func (d *DiffEngine) Diff(link *play.SourceLink, prev json.RawMessage, payload json.RawMessage) (*Change, error) {
	fp, err := Fingerprint(payload)
	if err != nil {
		return nil, errors.NewPermanentSourceError("unparseable provider payload", err.Error())
	}

	if link.HasFingerprint() && link.PayloadHash() == fp {
		return &Change{Fingerprint: fp, Unchanged: true}, nil
	}

	// First ever payload for this link: announce, nothing to delta against.
	if !link.HasFingerprint() {
		return &Change{Fingerprint: fp, Kind: event.KindCreated}, nil
	}

	var oldF, newF payloadFields
	if prev != nil {
		if err := json.Unmarshal(prev, &oldF); err != nil {
			return nil, errors.NewPermanentSourceError("stored snapshot payload is unreadable", err.Error())
		}
	}
	if err := json.Unmarshal(payload, &newF); err != nil {
		return nil, errors.NewPermanentSourceError("unparseable provider payload", err.Error())
	}

	delta := fieldDelta(oldF, newF)
	return &Change{Fingerprint: fp, Kind: classify(oldF, newF), Delta: delta}, nil
}

// classify picks the change kind by field priority: a cancellation beats an
// inventory move, which beats a plain update.
func classify(oldF, newF payloadFields) event.Kind {
	if newF.Status == string(event.TicketStatusCancelled) && oldF.Status != newF.Status {
		return event.KindCancelled
	}
	if oldF.Left != nil && newF.Left != nil {
		if *oldF.Left > 0 && *newF.Left == 0 {
			return event.KindSoldOut
		}
		if *oldF.Left == 0 && *newF.Left > 0 {
			return event.KindResumed
		}
	}
	return event.KindUpdated
}

func fieldDelta(oldF, newF payloadFields) event.Delta {
	delta := event.Delta{}
	if oldF.Status != newF.Status {
		delta["status"] = event.FieldChange{Old: oldF.Status, New: newF.Status}
	}
	if oldF.Title != newF.Title {
		delta["title"] = event.FieldChange{Old: oldF.Title, New: newF.Title}
	}
	if oldF.Location != newF.Location {
		delta["location"] = event.FieldChange{Old: oldF.Location, New: newF.Location}
	}
	if !equalTime(oldF.StartTime, newF.StartTime) {
		delta["start_time"] = event.FieldChange{Old: oldF.StartTime, New: newF.StartTime}
	}
	if !equalFloat(oldF.Price, newF.Price) {
		delta["price"] = event.FieldChange{Old: oldF.Price, New: newF.Price}
	}
	if !equalInt(oldF.Total, newF.Total) {
		delta["total"] = event.FieldChange{Old: oldF.Total, New: newF.Total}
	}
	if !equalInt(oldF.Left, newF.Left) {
		delta["left"] = event.FieldChange{Old: oldF.Left, New: newF.Left}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
