package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stagewatch/internal/domain/dispatch"
	"stagewatch/internal/infrastructure/persistence/mappers"
	"stagewatch/internal/infrastructure/persistence/models"
	"stagewatch/internal/shared/biztime"
	"stagewatch/internal/shared/db"
	"stagewatch/internal/shared/errors"
)

type SendQueueRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SendQueueMapper
}

func NewSendQueueRepository(database *gorm.DB) dispatch.Repository {
	return &SendQueueRepositoryImpl{
		db:     database,
		mapper: mappers.NewSendQueueMapper(),
	}
}

func (r *SendQueueRepositoryImpl) Enqueue(ctx context.Context, e *dispatch.QueueEntry) error {
	model := r.mapper.ToModel(e)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to enqueue entry: %w", err)
	}

	if err := e.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set queue entry ID: %w", err)
	}
	return nil
}

// ClaimDue selects due pending rows under a row lock and flips them to
// sending in the same transaction. SKIP LOCKED keeps concurrent pumps from
// blocking on, or double-claiming, each other's rows.
func (r *SendQueueRepositoryImpl) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*dispatch.QueueEntry, error) {
	var claimed []*models.SendQueueModel

	err := db.GetTxFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var ms []*models.SendQueueModel

		query := tx.
			Where("status = ? AND (next_retry_at IS NULL OR next_retry_at <= ?)",
				dispatch.StatusPending.String(), now.UTC()).
			Order("id").
			Limit(limit)
		// sqlite has no row locks; its single-writer transactions already
		// serialize claims.
		if tx.Dialector.Name() != "sqlite" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := query.Find(&ms).Error; err != nil {
			return fmt.Errorf("failed to select due entries: %w", err)
		}
		if len(ms) == 0 {
			return nil
		}

		ids := make([]uint, 0, len(ms))
		for _, m := range ms {
			ids = append(ids, m.ID)
		}

		claimedAt := biztime.NowUTC()
		err := tx.Model(&models.SendQueueModel{}).
			Where("id IN ?", ids).
			Updates(map[string]any{
				"status":     dispatch.StatusSending.String(),
				"updated_at": claimedAt,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to mark entries sending: %w", err)
		}

		for _, m := range ms {
			m.Status = dispatch.StatusSending.String()
			m.UpdatedAt = claimedAt
		}
		claimed = ms
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.mapper.ToEntities(claimed)
}

func (r *SendQueueRepositoryImpl) Update(ctx context.Context, e *dispatch.QueueEntry) error {
	model := r.mapper.ToModel(e)

	result := db.GetTxFromContext(ctx, r.db).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update queue entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("queue entry not found")
	}
	return nil
}

func (r *SendQueueRepositoryImpl) Remove(ctx context.Context, id uint) error {
	result := db.GetTxFromContext(ctx, r.db).Delete(&models.SendQueueModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to remove queue entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("queue entry not found")
	}
	return nil
}

func (r *SendQueueRepositoryImpl) CountPending(ctx context.Context) (int64, error) {
	var count int64

	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.SendQueueModel{}).
		Where("status = ?", dispatch.StatusPending.String()).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pending entries: %w", err)
	}
	return count, nil
}

func (r *SendQueueRepositoryImpl) ListFailed(ctx context.Context, limit int) ([]*dispatch.QueueEntry, error) {
	var ms []*models.SendQueueModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("status = ?", dispatch.StatusFailed.String()).
		Order("updated_at DESC").
		Limit(limit).
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list failed entries: %w", err)
	}

	return r.mapper.ToEntities(ms)
}
