package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"stagewatch/internal/domain/play"
	vo "stagewatch/internal/domain/play/valueobjects"
	"stagewatch/internal/infrastructure/persistence/mappers"
	"stagewatch/internal/infrastructure/persistence/models"
	"stagewatch/internal/shared/db"
	"stagewatch/internal/shared/errors"
)

type PlayAliasRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.PlayAliasMapper
}

func NewPlayAliasRepository(database *gorm.DB) play.AliasRepository {
	return &PlayAliasRepositoryImpl{
		db:     database,
		mapper: mappers.NewPlayAliasMapper(),
	}
}

func (r *PlayAliasRepositoryImpl) Create(ctx context.Context, a *play.Alias) error {
	model := r.mapper.ToModel(a)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		if dup := translateDuplicate(err, "alias already bound for this source"); errors.IsPersistenceConflict(dup) {
			return dup
		}
		return fmt.Errorf("failed to create alias: %w", err)
	}

	if err := a.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set alias ID: %w", err)
	}
	return nil
}

func (r *PlayAliasRepositoryImpl) GetByNorm(ctx context.Context, aliasNorm string, source vo.Source) (*play.Alias, error) {
	var model models.PlayAliasModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("alias_norm = ? AND source = ?", aliasNorm, source.String()).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("alias not found")
		}
		return nil, fmt.Errorf("failed to get alias: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PlayAliasRepositoryImpl) Update(ctx context.Context, a *play.Alias) error {
	model := r.mapper.ToModel(a)

	result := db.GetTxFromContext(ctx, r.db).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update alias: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("alias not found")
	}
	return nil
}

func (r *PlayAliasRepositoryImpl) ListByPlayID(ctx context.Context, playID uint) ([]*play.Alias, error) {
	var ms []*models.PlayAliasModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("play_id = ?", playID).
		Order("weight DESC, id").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}

	return r.mapper.ToEntities(ms)
}

func (r *PlayAliasRepositoryImpl) ListNeedingReview(ctx context.Context, threshold int) ([]*play.Alias, error) {
	var ms []*models.PlayAliasModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("no_response_count >= ?", threshold).
		Order("no_response_count DESC").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases needing review: %w", err)
	}

	return r.mapper.ToEntities(ms)
}
