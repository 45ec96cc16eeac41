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

type PlaySourceLinkRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.PlaySourceLinkMapper
}

func NewPlaySourceLinkRepository(database *gorm.DB) play.SourceLinkRepository {
	return &PlaySourceLinkRepositoryImpl{
		db:     database,
		mapper: mappers.NewPlaySourceLinkMapper(),
	}
}

func (r *PlaySourceLinkRepositoryImpl) Create(ctx context.Context, l *play.SourceLink) error {
	model := r.mapper.ToModel(l)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		if dup := translateDuplicate(err, "source record already linked"); errors.IsPersistenceConflict(dup) {
			return dup
		}
		return fmt.Errorf("failed to create source link: %w", err)
	}

	if err := l.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set source link ID: %w", err)
	}
	return nil
}

func (r *PlaySourceLinkRepositoryImpl) GetBySourceID(ctx context.Context, source vo.Source, sourceID string) (*play.SourceLink, error) {
	var model models.PlaySourceLinkModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("source = ? AND source_id = ?", source.String(), sourceID).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("source link not found")
		}
		return nil, fmt.Errorf("failed to get source link: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PlaySourceLinkRepositoryImpl) GetByPlayAndSource(ctx context.Context, playID uint, source vo.Source) (*play.SourceLink, error) {
	var model models.PlaySourceLinkModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("play_id = ? AND source = ?", playID, source.String()).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("source link not found")
		}
		return nil, fmt.Errorf("failed to get source link: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PlaySourceLinkRepositoryImpl) Update(ctx context.Context, l *play.SourceLink) error {
	model := r.mapper.ToModel(l)

	result := db.GetTxFromContext(ctx, r.db).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update source link: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("source link not found")
	}
	return nil
}

func (r *PlaySourceLinkRepositoryImpl) ListBySource(ctx context.Context, source vo.Source) ([]*play.SourceLink, error) {
	var ms []*models.PlaySourceLinkModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("source = ?", source.String()).
		Order("id").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list source links: %w", err)
	}

	return r.mapper.ToEntities(ms)
}

func (r *PlaySourceLinkRepositoryImpl) ListAll(ctx context.Context) ([]*play.SourceLink, error) {
	var ms []*models.PlaySourceLinkModel

	if err := db.GetTxFromContext(ctx, r.db).Order("id").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list source links: %w", err)
	}

	return r.mapper.ToEntities(ms)
}
