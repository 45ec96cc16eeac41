package play

import (
	"context"

	vo "stagewatch/internal/domain/play/valueobjects"
)

// Repository defines persistence for the play catalog.
type Repository interface {
	// Create persists a new play.
	Create(ctx context.Context, p *Play) error

	// GetByID retrieves a play by ID.
	GetByID(ctx context.Context, id uint) (*Play, error)

	// GetByNameNorm retrieves a play by its normalized name and optional
	// normalized city. An empty city matches plays without a default city.
	GetByNameNorm(ctx context.Context, nameNorm, cityNorm string) (*Play, error)

	// Update updates an existing play.
	Update(ctx context.Context, p *Play) error

	// ListAll returns every play. The resolver's fuzzy pass scans the whole
	// catalog; it stays small enough (hundreds of rows) for that to be fine.
	ListAll(ctx context.Context) ([]*Play, error)

	// ListPendingReview returns plays created below the confidence
	// threshold.
	ListPendingReview(ctx context.Context) ([]*Play, error)
}

// AliasRepository defines persistence for play aliases.
type AliasRepository interface {
	// Create persists a new alias. Returns a persistence-conflict error when
	// (normalized alias, source) already exists.
	Create(ctx context.Context, a *Alias) error

	// GetByNorm retrieves an alias by normalized text and source.
	GetByNorm(ctx context.Context, aliasNorm string, source vo.Source) (*Alias, error)

	// Update updates an existing alias.
	Update(ctx context.Context, a *Alias) error

	// ListByPlayID returns all aliases of one play ordered by weight.
	ListByPlayID(ctx context.Context, playID uint) ([]*Alias, error)

	// ListNeedingReview returns aliases whose no-response counter has
	// crossed the given threshold.
	ListNeedingReview(ctx context.Context, threshold int) ([]*Alias, error)
}

// SourceLinkRepository defines persistence for play/provider bindings.
type SourceLinkRepository interface {
	// Create persists a new link. Returns a persistence-conflict error when
	// (source, source record ID) already exists.
	Create(ctx context.Context, l *SourceLink) error

	// GetBySourceID retrieves a link by provider and native record ID.
	GetBySourceID(ctx context.Context, source vo.Source, sourceID string) (*SourceLink, error)

	// GetByPlayAndSource retrieves the single link a play may have per
	// provider.
	GetByPlayAndSource(ctx context.Context, playID uint, source vo.Source) (*SourceLink, error)

	// Update updates an existing link.
	Update(ctx context.Context, l *SourceLink) error

	// ListBySource returns all links for one provider, the poll scheduler's
	// work list.
	ListBySource(ctx context.Context, source vo.Source) ([]*SourceLink, error)

	// ListAll returns every registered link.
	ListAll(ctx context.Context) ([]*SourceLink, error)
}

// SnapshotRepository defines persistence for play snapshots.
type SnapshotRepository interface {
	// Upsert creates or replaces the snapshot row for (play, city).
	Upsert(ctx context.Context, s *Snapshot) error

	// Get retrieves the snapshot for (play, city).
	Get(ctx context.Context, playID uint, cityNorm string) (*Snapshot, error)

	// Touch refreshes the last-success timestamp of an existing snapshot.
	Touch(ctx context.Context, playID uint, cityNorm string) error
}
