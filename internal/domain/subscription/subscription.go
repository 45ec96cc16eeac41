// Package subscription provides subscribers, the targets they watch, and
// the per-subscriber delivery options that gate notifications.
package subscription

import (
	"fmt"
	"time"

	"stagewatch/internal/shared/biztime"
)

// Subscription is one subscriber (a user or a group) together with the
// endpoint notices are delivered to.
type Subscription struct {
	id           uint
	subscriberID string
	endpoint     string
	createdAt    time.Time
	updatedAt    time.Time
}

// NewSubscription creates a subscription for a subscriber and delivery
// endpoint.
func NewSubscription(subscriberID, endpoint string) (*Subscription, error) {
	if subscriberID == "" {
		return nil, fmt.Errorf("subscriber ID is required")
	}
	if endpoint == "" {
		return nil, fmt.Errorf("delivery endpoint is required")
	}
	now := biztime.NowUTC()
	return &Subscription{
		subscriberID: subscriberID,
		endpoint:     endpoint,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructSubscription rebuilds a subscription from persistence.
func ReconstructSubscription(id uint, subscriberID, endpoint string, createdAt, updatedAt time.Time) (*Subscription, error) {
	if id == 0 {
		return nil, fmt.Errorf("subscription ID cannot be zero")
	}
	if subscriberID == "" {
		return nil, fmt.Errorf("subscriber ID is required")
	}
	return &Subscription{
		id:           id,
		subscriberID: subscriberID,
		endpoint:     endpoint,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}, nil
}

func (s *Subscription) ID() uint             { return s.id }
func (s *Subscription) SubscriberID() string { return s.subscriberID }
func (s *Subscription) Endpoint() string     { return s.endpoint }
func (s *Subscription) CreatedAt() time.Time { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time { return s.updatedAt }

// SetID assigns the persistence identity after the initial insert.
func (s *Subscription) SetID(id uint) error {
	if s.id != 0 {
		return fmt.Errorf("subscription ID already set")
	}
	if id == 0 {
		return fmt.Errorf("subscription ID cannot be zero")
	}
	s.id = id
	return nil
}
