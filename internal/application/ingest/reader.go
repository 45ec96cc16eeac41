package ingest

import (
	"context"
	"encoding/json"
	"time"

	"stagewatch/internal/domain/play"
	"stagewatch/internal/shared/biztime"
	"stagewatch/internal/shared/errors"
	"stagewatch/internal/shared/logger"
)

// SnapshotCacheReader is the read side of the snapshot cache.
type SnapshotCacheReader interface {
	Get(ctx context.Context, playID uint, cityNorm string) (json.RawMessage, error)
}

// SnapshotView is what the ops surface returns for one (play, city) pair.
// Stale snapshots are still served; the flag tells the caller a refresh is
// overdue.
type SnapshotView struct {
	PlayID        uint            `json:"play_id"`
	CityNorm      string          `json:"city_norm"`
	Payload       json.RawMessage `json:"payload"`
	Stale         bool            `json:"stale"`
	Cached        bool            `json:"cached"`
	LastSuccessAt *time.Time      `json:"last_success_at,omitempty"`
}

// SnapshotReader serves snapshot reads cache-first with a durable fallback.
type SnapshotReader struct {
	snapshots play.SnapshotRepository
	cache     SnapshotCacheReader
	logger    logger.Interface
}

func NewSnapshotReader(snapshots play.SnapshotRepository, cache SnapshotCacheReader, log logger.Interface) *SnapshotReader {
	return &SnapshotReader{
		snapshots: snapshots,
		cache:     cache,
		logger:    log.Named("snapshot_reader"),
	}
}

// Get returns the current snapshot for (play, city). A cache hit is fresh by
// construction; a durable fallback computes staleness from the row itself.
func (r *SnapshotReader) Get(ctx context.Context, playID uint, cityNorm string) (*SnapshotView, error) {
	if cached, err := r.cache.Get(ctx, playID, cityNorm); err != nil {
		r.logger.Warnw("snapshot cache read failed", "play_id", playID, "error", err)
	} else if cached != nil {
		return &SnapshotView{
			PlayID:   playID,
			CityNorm: cityNorm,
			Payload:  cached,
			Cached:   true,
		}, nil
	}

	snap, err := r.snapshots.Get(ctx, playID, cityNorm)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError("snapshot not found")
		}
		return nil, err
	}

	return &SnapshotView{
		PlayID:        playID,
		CityNorm:      cityNorm,
		Payload:       snap.Payload(),
		Stale:         snap.IsStale(biztime.NowUTC()),
		LastSuccessAt: snap.LastSuccessAt(),
	}, nil
}
