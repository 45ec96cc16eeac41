package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"stagewatch/internal/domain/play"
	"stagewatch/internal/infrastructure/persistence/mappers"
	"stagewatch/internal/infrastructure/persistence/models"
	"stagewatch/internal/shared/db"
	"stagewatch/internal/shared/errors"
)

type PlayRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.PlayMapper
}

func NewPlayRepository(database *gorm.DB) play.Repository {
	return &PlayRepositoryImpl{
		db:     database,
		mapper: mappers.NewPlayMapper(),
	}
}

func (r *PlayRepositoryImpl) Create(ctx context.Context, p *play.Play) error {
	model := r.mapper.ToModel(p)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		if dup := translateDuplicate(err, "play with this normalized name already exists"); errors.IsPersistenceConflict(dup) {
			return dup
		}
		return fmt.Errorf("failed to create play: %w", err)
	}

	if err := p.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set play ID: %w", err)
	}
	return nil
}

func (r *PlayRepositoryImpl) GetByID(ctx context.Context, id uint) (*play.Play, error) {
	var model models.PlayModel

	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("play not found")
		}
		return nil, fmt.Errorf("failed to get play by ID: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PlayRepositoryImpl) GetByNameNorm(ctx context.Context, nameNorm, cityNorm string) (*play.Play, error) {
	var model models.PlayModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("name_norm = ? AND default_city_norm = ?", nameNorm, cityNorm).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("play not found")
		}
		return nil, fmt.Errorf("failed to get play by normalized name: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PlayRepositoryImpl) Update(ctx context.Context, p *play.Play) error {
	model := r.mapper.ToModel(p)

	result := db.GetTxFromContext(ctx, r.db).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update play: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("play not found")
	}
	return nil
}

func (r *PlayRepositoryImpl) ListAll(ctx context.Context) ([]*play.Play, error) {
	var ms []*models.PlayModel

	if err := db.GetTxFromContext(ctx, r.db).Order("id").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list plays: %w", err)
	}

	return r.mapper.ToEntities(ms)
}

func (r *PlayRepositoryImpl) ListPendingReview(ctx context.Context) ([]*play.Play, error) {
	var ms []*models.PlayModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("pending_review = ?", true).
		Order("id").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending plays: %w", err)
	}

	return r.mapper.ToEntities(ms)
}
