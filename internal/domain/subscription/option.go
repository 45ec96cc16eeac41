package subscription

import (
	"fmt"
	"time"

	"stagewatch/internal/domain/event"
	vo "stagewatch/internal/domain/subscription/valueobjects"
	"stagewatch/internal/shared/biztime"
)

// SuppressReason says why the option gate declined a notification.
type SuppressReason string

const (
	SuppressNone        SuppressReason = ""
	SuppressMuted       SuppressReason = "muted"
	SuppressBroadcast   SuppressReason = "broadcast_disallowed"
	SuppressRateLimited SuppressReason = "rate_limited"
)

// Option is the per-subscription delivery policy. Exactly one option row
// exists per subscription.
type Option struct {
	id             uint
	subscriptionID uint
	mute           bool
	frequency      vo.Frequency
	allowBroadcast bool
	lastNotifiedAt *time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

// NewOption creates the delivery policy for a subscription.
func NewOption(subscriptionID uint, mute bool, frequency vo.Frequency, allowBroadcast bool) (*Option, error) {
	if subscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if !frequency.IsValid() {
		return nil, fmt.Errorf("invalid frequency: %q", frequency)
	}
	now := biztime.NowUTC()
	return &Option{
		subscriptionID: subscriptionID,
		mute:           mute,
		frequency:      frequency,
		allowBroadcast: allowBroadcast,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructOption rebuilds an option from persistence.
func ReconstructOption(
	id uint,
	subscriptionID uint,
	mute bool,
	frequency vo.Frequency,
	allowBroadcast bool,
	lastNotifiedAt *time.Time,
	createdAt, updatedAt time.Time,
) (*Option, error) {
	if id == 0 {
		return nil, fmt.Errorf("option ID cannot be zero")
	}
	if subscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if !frequency.IsValid() {
		return nil, fmt.Errorf("invalid frequency: %q", frequency)
	}
	return &Option{
		id:             id,
		subscriptionID: subscriptionID,
		mute:           mute,
		frequency:      frequency,
		allowBroadcast: allowBroadcast,
		lastNotifiedAt: lastNotifiedAt,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}, nil
}

func (o *Option) ID() uint                   { return o.id }
func (o *Option) SubscriptionID() uint       { return o.subscriptionID }
func (o *Option) Muted() bool                { return o.mute }
func (o *Option) Frequency() vo.Frequency    { return o.frequency }
func (o *Option) AllowBroadcast() bool       { return o.allowBroadcast }
func (o *Option) LastNotifiedAt() *time.Time { return o.lastNotifiedAt }
func (o *Option) CreatedAt() time.Time       { return o.createdAt }
func (o *Option) UpdatedAt() time.Time       { return o.updatedAt }

// SetID assigns the persistence identity after the initial insert.
func (o *Option) SetID(id uint) error {
	if o.id != 0 {
		return fmt.Errorf("option ID already set")
	}
	if id == 0 {
		return fmt.Errorf("option ID cannot be zero")
	}
	o.id = id
	return nil
}

// Mute silences the subscription.
func (o *Option) Mute() {
	o.mute = true
	o.updatedAt = biztime.NowUTC()
}

// Unmute re-enables delivery.
func (o *Option) Unmute() {
	o.mute = false
	o.updatedAt = biztime.NowUTC()
}

// Evaluate applies the option gates to an event kind at the given instant:
// mute, broadcast permission, then the minimum-frequency throttle. A
// suppressed event is not requeued; the next qualifying event re-evaluates
// against the same policy.
func (o *Option) Evaluate(kind event.Kind, now time.Time) SuppressReason {
	if o.mute {
		return SuppressMuted
	}
	if kind.IsBroadcast() && !o.allowBroadcast {
		return SuppressBroadcast
	}
	if interval := o.frequency.Interval(); interval > 0 && o.lastNotifiedAt != nil {
		if now.UTC().Sub(*o.lastNotifiedAt) < interval {
			return SuppressRateLimited
		}
	}
	return SuppressNone
}

// MarkNotified records a successful enqueue for throttling purposes.
func (o *Option) MarkNotified(at time.Time) {
	at = at.UTC()
	o.lastNotifiedAt = &at
	o.updatedAt = at
}
