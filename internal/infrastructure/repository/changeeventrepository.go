package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"stagewatch/internal/domain/event"
	"stagewatch/internal/infrastructure/persistence/mappers"
	"stagewatch/internal/infrastructure/persistence/models"
	"stagewatch/internal/shared/db"
	"stagewatch/internal/shared/errors"
)

// ChangeEventRepositoryImpl only ever inserts and selects; the event log is
// append-only by construction.
type ChangeEventRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.ChangeEventMapper
}

func NewChangeEventRepository(database *gorm.DB) event.Repository {
	return &ChangeEventRepositoryImpl{
		db:     database,
		mapper: mappers.NewChangeEventMapper(),
	}
}

func (r *ChangeEventRepositoryImpl) Append(ctx context.Context, e *event.ChangeEvent) error {
	model, err := r.mapper.ToModel(e)
	if err != nil {
		return fmt.Errorf("failed to map change event to model: %w", err)
	}

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to append change event: %w", err)
	}
	return nil
}

func (r *ChangeEventRepositoryImpl) GetByID(ctx context.Context, id string) (*event.ChangeEvent, error) {
	var model models.ChangeEventModel

	err := db.GetTxFromContext(ctx, r.db).Where("id = ?", id).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("change event not found")
		}
		return nil, fmt.Errorf("failed to get change event: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *ChangeEventRepositoryImpl) ListByPlayID(ctx context.Context, playID uint, limit int) ([]*event.ChangeEvent, error) {
	var ms []*models.ChangeEventModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("play_id = ?", playID).
		Order("observed_at DESC").
		Limit(limit).
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list change events: %w", err)
	}

	return r.mapper.ToEntities(ms)
}

func (r *ChangeEventRepositoryImpl) ListSince(ctx context.Context, since time.Time, limit int) ([]*event.ChangeEvent, error) {
	var ms []*models.ChangeEventModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("observed_at > ?", since).
		Order("observed_at ASC").
		Limit(limit).
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list change events: %w", err)
	}

	return r.mapper.ToEntities(ms)
}
