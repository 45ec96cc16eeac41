package play

import (
	"encoding/json"
	"fmt"
	"time"

	"stagewatch/internal/shared/biztime"
)

// Snapshot holds the latest known payload for a (play, normalized city)
// pair. Staleness is derived from the last-success timestamp and TTL at read
// time; it is never an independently mutated column.
type Snapshot struct {
	id            uint
	playID        uint
	cityNorm      string
	payload       json.RawMessage
	lastSuccessAt *time.Time
	ttlSeconds    int
	createdAt     time.Time
	updatedAt     time.Time
}

// NewSnapshot creates a snapshot for a play/city pair.
func NewSnapshot(playID uint, cityNorm string, payload json.RawMessage, ttlSeconds int) (*Snapshot, error) {
	if playID == 0 {
		return nil, fmt.Errorf("play ID is required")
	}
	if ttlSeconds < 0 {
		return nil, fmt.Errorf("ttl cannot be negative: %d", ttlSeconds)
	}
	now := biztime.NowUTC()
	return &Snapshot{
		playID:        playID,
		cityNorm:      cityNorm,
		payload:       payload,
		lastSuccessAt: &now,
		ttlSeconds:    ttlSeconds,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructSnapshot rebuilds a snapshot from persistence.
func ReconstructSnapshot(
	id uint,
	playID uint,
	cityNorm string,
	payload json.RawMessage,
	lastSuccessAt *time.Time,
	ttlSeconds int,
	createdAt, updatedAt time.Time,
) (*Snapshot, error) {
	if id == 0 {
		return nil, fmt.Errorf("snapshot ID cannot be zero")
	}
	if playID == 0 {
		return nil, fmt.Errorf("play ID is required")
	}
	return &Snapshot{
		id:            id,
		playID:        playID,
		cityNorm:      cityNorm,
		payload:       payload,
		lastSuccessAt: lastSuccessAt,
		ttlSeconds:    ttlSeconds,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}, nil
}

func (s *Snapshot) ID() uint                  { return s.id }
func (s *Snapshot) PlayID() uint              { return s.playID }
func (s *Snapshot) CityNorm() string          { return s.cityNorm }
func (s *Snapshot) Payload() json.RawMessage  { return s.payload }
func (s *Snapshot) LastSuccessAt() *time.Time { return s.lastSuccessAt }
func (s *Snapshot) TTLSeconds() int           { return s.ttlSeconds }
func (s *Snapshot) CreatedAt() time.Time      { return s.createdAt }
func (s *Snapshot) UpdatedAt() time.Time      { return s.updatedAt }

// SetID assigns the persistence identity after the initial insert.
func (s *Snapshot) SetID(id uint) error {
	if s.id != 0 {
		return fmt.Errorf("snapshot ID already set")
	}
	if id == 0 {
		return fmt.Errorf("snapshot ID cannot be zero")
	}
	s.id = id
	return nil
}

// Replace stores a freshly ingested payload and restarts the freshness
// window.
func (s *Snapshot) Replace(payload json.RawMessage, ttlSeconds int, at time.Time) error {
	if ttlSeconds < 0 {
		return fmt.Errorf("ttl cannot be negative: %d", ttlSeconds)
	}
	at = at.UTC()
	s.payload = payload
	s.ttlSeconds = ttlSeconds
	s.lastSuccessAt = &at
	s.updatedAt = at
	return nil
}

// Touch refreshes the freshness window without changing the payload. Used
// when a poll found the payload unchanged.
func (s *Snapshot) Touch(at time.Time) {
	at = at.UTC()
	s.lastSuccessAt = &at
	s.updatedAt = at
}

// IsStale reports whether the snapshot has outlived its freshness window at
// the given instant. A snapshot with no recorded success is always stale.
func (s *Snapshot) IsStale(now time.Time) bool {
	if s.lastSuccessAt == nil {
		return true
	}
	if s.ttlSeconds <= 0 {
		return false
	}
	return now.UTC().Sub(*s.lastSuccessAt) > time.Duration(s.ttlSeconds)*time.Second
}
