package play

import (
	"fmt"
	"time"

	vo "stagewatch/internal/domain/play/valueobjects"
	"stagewatch/internal/shared/biztime"
	"stagewatch/internal/shared/normalize"
)

// SourceLink binds one play to one provider's native record. (source,
// sourceID) is unique, and one play has at most one link per source. The
// content fingerprint stored here is the diff engine's memory of the last
// ingested payload.
type SourceLink struct {
	id            uint
	playID        uint
	source        vo.Source
	sourceID      string
	titleAtSource string
	cityHint      string
	confidence    float64
	lastSyncAt    *time.Time
	payloadHash   string
	lastError     string
	lastErrorAt   *time.Time
	createdAt     time.Time
	updatedAt     time.Time
}

// NewSourceLink binds a play to a provider record with the resolution
// confidence that produced the binding.
func NewSourceLink(playID uint, source vo.Source, sourceID, titleAtSource, cityHint string, confidence float64) (*SourceLink, error) {
	if playID == 0 {
		return nil, fmt.Errorf("play ID is required")
	}
	if !source.IsValid() {
		return nil, fmt.Errorf("invalid link source: %q", source)
	}
	if sourceID == "" {
		return nil, fmt.Errorf("source record ID is required")
	}
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("confidence out of range: %f", confidence)
	}
	now := biztime.NowUTC()
	return &SourceLink{
		playID:        playID,
		source:        source,
		sourceID:      sourceID,
		titleAtSource: titleAtSource,
		cityHint:      normalize.City(cityHint),
		confidence:    confidence,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructSourceLink rebuilds a link from persistence.
func ReconstructSourceLink(
	id uint,
	playID uint,
	source vo.Source,
	sourceID string,
	titleAtSource string,
	cityHint string,
	confidence float64,
	lastSyncAt *time.Time,
	payloadHash string,
	lastError string,
	lastErrorAt *time.Time,
	createdAt, updatedAt time.Time,
) (*SourceLink, error) {
	if id == 0 {
		return nil, fmt.Errorf("source link ID cannot be zero")
	}
	if playID == 0 {
		return nil, fmt.Errorf("play ID is required")
	}
	if sourceID == "" {
		return nil, fmt.Errorf("source record ID is required")
	}
	return &SourceLink{
		id:            id,
		playID:        playID,
		source:        source,
		sourceID:      sourceID,
		titleAtSource: titleAtSource,
		cityHint:      cityHint,
		confidence:    confidence,
		lastSyncAt:    lastSyncAt,
		payloadHash:   payloadHash,
		lastError:     lastError,
		lastErrorAt:   lastErrorAt,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}, nil
}

func (l *SourceLink) ID() uint                { return l.id }
func (l *SourceLink) PlayID() uint            { return l.playID }
func (l *SourceLink) Source() vo.Source       { return l.source }
func (l *SourceLink) SourceID() string        { return l.sourceID }
func (l *SourceLink) TitleAtSource() string   { return l.titleAtSource }
func (l *SourceLink) CityHint() string        { return l.cityHint }
func (l *SourceLink) Confidence() float64     { return l.confidence }
func (l *SourceLink) LastSyncAt() *time.Time  { return l.lastSyncAt }
func (l *SourceLink) PayloadHash() string     { return l.payloadHash }
func (l *SourceLink) LastError() string       { return l.lastError }
func (l *SourceLink) LastErrorAt() *time.Time { return l.lastErrorAt }
func (l *SourceLink) CreatedAt() time.Time    { return l.createdAt }
func (l *SourceLink) UpdatedAt() time.Time    { return l.updatedAt }

// SetID assigns the persistence identity after the initial insert.
func (l *SourceLink) SetID(id uint) error {
	if l.id != 0 {
		return fmt.Errorf("source link ID already set")
	}
	if id == 0 {
		return fmt.Errorf("source link ID cannot be zero")
	}
	l.id = id
	return nil
}

// RefreshObserved updates the last-seen title and city hint from a fresh
// provider record without touching the fingerprint.
func (l *SourceLink) RefreshObserved(titleAtSource, cityHint string) {
	if titleAtSource != "" {
		l.titleAtSource = titleAtSource
	}
	if city := normalize.City(cityHint); city != "" {
		l.cityHint = city
	}
	l.updatedAt = biztime.NowUTC()
}

// AdvanceFingerprint records the content hash of the payload just ingested
// and the successful sync time. Only the poll cycle's transactional commit
// may call this.
func (l *SourceLink) AdvanceFingerprint(hash string, at time.Time) error {
	if hash == "" {
		return fmt.Errorf("payload hash is required")
	}
	l.payloadHash = hash
	at = at.UTC()
	l.lastSyncAt = &at
	l.lastError = ""
	l.lastErrorAt = nil
	l.updatedAt = at
	return nil
}

// MarkSynced refreshes the sync time when the payload was unchanged.
func (l *SourceLink) MarkSynced(at time.Time) {
	at = at.UTC()
	l.lastSyncAt = &at
	l.lastError = ""
	l.lastErrorAt = nil
	l.updatedAt = at
}

// MarkFailed records a permanent cycle failure on the link. The scheduler
// stops polling a failed link at full cadence; the state clears on the next
// successful sync.
func (l *SourceLink) MarkFailed(cause string, at time.Time) {
	if cause == "" {
		cause = "unknown failure"
	}
	at = at.UTC()
	l.lastError = cause
	l.lastErrorAt = &at
	l.updatedAt = at
}

// InError reports whether the last cycle for the link failed permanently.
func (l *SourceLink) InError() bool {
	return l.lastErrorAt != nil
}

// HasFingerprint reports whether any payload was ever ingested for the link.
func (l *SourceLink) HasFingerprint() bool {
	return l.payloadHash != ""
}
