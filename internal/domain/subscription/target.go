package subscription

import (
	"fmt"
	"strconv"
	"time"

	playvo "stagewatch/internal/domain/play/valueobjects"
	vo "stagewatch/internal/domain/subscription/valueobjects"
	"stagewatch/internal/shared/biztime"
	"stagewatch/internal/shared/normalize"
)

// Target is one thing a subscription watches. (subscription, kind, target
// ID) is unique.
type Target struct {
	id             uint
	subscriptionID uint
	kind           vo.TargetKind
	targetID       string
	name           string
	cityFilter     string
	flags          map[string]bool
	createdAt      time.Time
	updatedAt      time.Time
}

// NewTarget creates a subscription target. For play targets the target ID
// is the decimal play ID; for source targets it is the provider identifier;
// for city targets it is the normalized city.
func NewTarget(subscriptionID uint, kind vo.TargetKind, targetID, name, cityFilter string, flags map[string]bool) (*Target, error) {
	if subscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid target kind: %q", kind)
	}
	if targetID == "" {
		return nil, fmt.Errorf("target ID is required")
	}
	if kind == vo.TargetKindCity {
		targetID = normalize.City(targetID)
	}
	now := biztime.NowUTC()
	return &Target{
		subscriptionID: subscriptionID,
		kind:           kind,
		targetID:       targetID,
		name:           name,
		cityFilter:     normalize.City(cityFilter),
		flags:          flags,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructTarget rebuilds a target from persistence.
func ReconstructTarget(
	id uint,
	subscriptionID uint,
	kind vo.TargetKind,
	targetID string,
	name string,
	cityFilter string,
	flags map[string]bool,
	createdAt, updatedAt time.Time,
) (*Target, error) {
	if id == 0 {
		return nil, fmt.Errorf("target ID cannot be zero")
	}
	if subscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid target kind: %q", kind)
	}
	return &Target{
		id:             id,
		subscriptionID: subscriptionID,
		kind:           kind,
		targetID:       targetID,
		name:           name,
		cityFilter:     cityFilter,
		flags:          flags,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}, nil
}

func (t *Target) ID() uint             { return t.id }
func (t *Target) SubscriptionID() uint { return t.subscriptionID }
func (t *Target) Kind() vo.TargetKind  { return t.kind }
func (t *Target) TargetID() string     { return t.targetID }
func (t *Target) Name() string         { return t.name }
func (t *Target) CityFilter() string   { return t.cityFilter }
func (t *Target) CreatedAt() time.Time { return t.createdAt }
func (t *Target) UpdatedAt() time.Time { return t.updatedAt }

// Flags returns a copy of the free-form flag bits.
func (t *Target) Flags() map[string]bool {
	if t.flags == nil {
		return nil
	}
	out := make(map[string]bool, len(t.flags))
	for k, v := range t.flags {
		out[k] = v
	}
	return out
}

// SetID assigns the persistence identity after the initial insert.
func (t *Target) SetID(id uint) error {
	if t.id != 0 {
		return fmt.Errorf("target ID already set")
	}
	if id == 0 {
		return fmt.Errorf("target ID cannot be zero")
	}
	t.id = id
	return nil
}

// Matches reports whether an event context (play, source, city) falls under
// this target, honoring the optional city filter.
func (t *Target) Matches(playID uint, source playvo.Source, cityNorm string) bool {
	if t.cityFilter != "" && t.cityFilter != cityNorm {
		return false
	}
	switch t.kind {
	case vo.TargetKindPlay:
		return t.targetID == strconv.FormatUint(uint64(playID), 10)
	case vo.TargetKindSource:
		return t.targetID == source.String()
	case vo.TargetKindCity:
		return t.targetID == cityNorm
	}
	return false
}
