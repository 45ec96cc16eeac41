package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stagewatch/internal/domain/play"
	"stagewatch/internal/infrastructure/persistence/mappers"
	"stagewatch/internal/infrastructure/persistence/models"
	"stagewatch/internal/shared/biztime"
	"stagewatch/internal/shared/db"
	"stagewatch/internal/shared/errors"
)

type PlaySnapshotRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.PlaySnapshotMapper
}

func NewPlaySnapshotRepository(database *gorm.DB) play.SnapshotRepository {
	return &PlaySnapshotRepositoryImpl{
		db:     database,
		mapper: mappers.NewPlaySnapshotMapper(),
	}
}

func (r *PlaySnapshotRepositoryImpl) Upsert(ctx context.Context, s *play.Snapshot) error {
	model := r.mapper.ToModel(s)

	err := db.GetTxFromContext(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "play_id"}, {Name: "city_norm"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"payload", "last_success_at", "ttl_seconds", "updated_at",
			}),
		}).
		Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	if s.ID() == 0 && model.ID != 0 {
		if err := s.SetID(model.ID); err != nil {
			return fmt.Errorf("failed to set snapshot ID: %w", err)
		}
	}
	return nil
}

func (r *PlaySnapshotRepositoryImpl) Get(ctx context.Context, playID uint, cityNorm string) (*play.Snapshot, error) {
	var model models.PlaySnapshotModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("play_id = ? AND city_norm = ?", playID, cityNorm).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("snapshot not found")
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PlaySnapshotRepositoryImpl) Touch(ctx context.Context, playID uint, cityNorm string) error {
	now := biztime.NowUTC()

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.PlaySnapshotModel{}).
		Where("play_id = ? AND city_norm = ?", playID, cityNorm).
		Updates(map[string]any{"last_success_at": now, "updated_at": now})
	if result.Error != nil {
		return fmt.Errorf("failed to touch snapshot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("snapshot not found")
	}
	return nil
}
