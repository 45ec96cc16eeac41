package subscription

import (
	"context"
	"time"

	vo "stagewatch/internal/domain/subscription/valueobjects"
)

// Repository defines persistence for subscriptions.
type Repository interface {
	// Create persists a new subscription.
	Create(ctx context.Context, s *Subscription) error

	// GetByID retrieves a subscription by ID.
	GetByID(ctx context.Context, id uint) (*Subscription, error)

	// GetBySubscriberID retrieves a subscriber's subscription.
	GetBySubscriberID(ctx context.Context, subscriberID string) (*Subscription, error)

	// Delete removes a subscription together with its targets and option.
	Delete(ctx context.Context, id uint) error
}

// TargetRepository defines persistence for subscription targets.
type TargetRepository interface {
	// Create persists a new target. Returns a persistence-conflict error
	// when (subscription, kind, target ID) already exists.
	Create(ctx context.Context, t *Target) error

	// Delete removes one target.
	Delete(ctx context.Context, id uint) error

	// ListBySubscriptionID returns all targets of one subscription.
	ListBySubscriptionID(ctx context.Context, subscriptionID uint) ([]*Target, error)

	// ListByKindAndIDs returns every target matching one of the candidate
	// (kind, target ID) pairs. The matcher builds the candidate set from an
	// event's play/source/city context so matching stays one indexed query.
	ListByKindAndIDs(ctx context.Context, kind vo.TargetKind, targetIDs []string) ([]*Target, error)
}

// OptionRepository defines persistence for subscription options.
type OptionRepository interface {
	// Create persists the option row for a subscription; at most one exists.
	Create(ctx context.Context, o *Option) error

	// GetBySubscriptionID retrieves a subscription's option.
	GetBySubscriptionID(ctx context.Context, subscriptionID uint) (*Option, error)

	// Update updates an existing option.
	Update(ctx context.Context, o *Option) error

	// ClaimNotify conditionally advances the option's last-notified time to
	// now when the previous value still clears minInterval. The write is one
	// conditional update, so concurrent publishers racing on the same
	// throttle window see exactly one winner. Returns false when the window
	// was already claimed or no option row exists.
	ClaimNotify(ctx context.Context, subscriptionID uint, now time.Time, minInterval time.Duration) (bool, error)

	// ListBroadcastEnabled returns every option that opted into broadcast
	// notices. New-show announcements fan out through this list.
	ListBroadcastEnabled(ctx context.Context) ([]*Option, error)
}
