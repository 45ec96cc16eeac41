package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"stagewatch/internal/domain/subscription"
	vo "stagewatch/internal/domain/subscription/valueobjects"
	"stagewatch/internal/infrastructure/persistence/mappers"
	"stagewatch/internal/infrastructure/persistence/models"
	"stagewatch/internal/shared/db"
	"stagewatch/internal/shared/errors"
)

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SubscriptionMapper
}

func NewSubscriptionRepository(database *gorm.DB) subscription.Repository {
	return &SubscriptionRepositoryImpl{
		db:     database,
		mapper: mappers.NewSubscriptionMapper(),
	}
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, s *subscription.Subscription) error {
	model := r.mapper.ToModel(s)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		if dup := translateDuplicate(err, "subscriber already registered"); errors.IsPersistenceConflict(dup) {
			return dup
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	if err := s.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set subscription ID: %w", err)
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("subscription not found")
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *SubscriptionRepositoryImpl) GetBySubscriberID(ctx context.Context, subscriberID string) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("subscriber_id = ?", subscriberID).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("subscription not found")
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// Delete removes the subscription and its dependent rows in one transaction.
func (r *SubscriptionRepositoryImpl) Delete(ctx context.Context, id uint) error {
	return db.GetTxFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("subscription_id = ?", id).Delete(&models.SubscriptionTargetModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete subscription targets: %w", err)
		}
		if err := tx.Where("subscription_id = ?", id).Delete(&models.SubscriptionOptionModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete subscription option: %w", err)
		}
		result := tx.Delete(&models.SubscriptionModel{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete subscription: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return errors.NewNotFoundError("subscription not found")
		}
		return nil
	})
}

type SubscriptionTargetRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SubscriptionTargetMapper
}

func NewSubscriptionTargetRepository(database *gorm.DB) subscription.TargetRepository {
	return &SubscriptionTargetRepositoryImpl{
		db:     database,
		mapper: mappers.NewSubscriptionTargetMapper(),
	}
}

func (r *SubscriptionTargetRepositoryImpl) Create(ctx context.Context, t *subscription.Target) error {
	model, err := r.mapper.ToModel(t)
	if err != nil {
		return fmt.Errorf("failed to map target to model: %w", err)
	}

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		if dup := translateDuplicate(err, "target already watched"); errors.IsPersistenceConflict(dup) {
			return dup
		}
		return fmt.Errorf("failed to create target: %w", err)
	}

	if err := t.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set target ID: %w", err)
	}
	return nil
}

func (r *SubscriptionTargetRepositoryImpl) Delete(ctx context.Context, id uint) error {
	result := db.GetTxFromContext(ctx, r.db).Delete(&models.SubscriptionTargetModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete target: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("target not found")
	}
	return nil
}

func (r *SubscriptionTargetRepositoryImpl) ListBySubscriptionID(ctx context.Context, subscriptionID uint) ([]*subscription.Target, error) {
	var ms []*models.SubscriptionTargetModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("subscription_id = ?", subscriptionID).
		Order("id").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}

	return r.mapper.ToEntities(ms)
}

func (r *SubscriptionTargetRepositoryImpl) ListByKindAndIDs(ctx context.Context, kind vo.TargetKind, targetIDs []string) ([]*subscription.Target, error) {
	if len(targetIDs) == 0 {
		return nil, nil
	}
	var ms []*models.SubscriptionTargetModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("kind = ? AND target_id IN ?", kind.String(), targetIDs).
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list targets by kind: %w", err)
	}

	return r.mapper.ToEntities(ms)
}

type SubscriptionOptionRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SubscriptionOptionMapper
}

func NewSubscriptionOptionRepository(database *gorm.DB) subscription.OptionRepository {
	return &SubscriptionOptionRepositoryImpl{
		db:     database,
		mapper: mappers.NewSubscriptionOptionMapper(),
	}
}

func (r *SubscriptionOptionRepositoryImpl) Create(ctx context.Context, o *subscription.Option) error {
	model := r.mapper.ToModel(o)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		if dup := translateDuplicate(err, "option already exists"); errors.IsPersistenceConflict(dup) {
			return dup
		}
		return fmt.Errorf("failed to create option: %w", err)
	}

	if err := o.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set option ID: %w", err)
	}
	return nil
}

func (r *SubscriptionOptionRepositoryImpl) GetBySubscriptionID(ctx context.Context, subscriptionID uint) (*subscription.Option, error) {
	var model models.SubscriptionOptionModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("subscription_id = ?", subscriptionID).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("option not found")
		}
		return nil, fmt.Errorf("failed to get option: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *SubscriptionOptionRepositoryImpl) Update(ctx context.Context, o *subscription.Option) error {
	model := r.mapper.ToModel(o)

	result := db.GetTxFromContext(ctx, r.db).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update option: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("option not found")
	}
	return nil
}

// ClaimNotify advances last_notified_at behind a conditional WHERE so two
// publishers racing on the same throttle window cannot both win.
func (r *SubscriptionOptionRepositoryImpl) ClaimNotify(ctx context.Context, subscriptionID uint, now time.Time, minInterval time.Duration) (bool, error) {
	now = now.UTC()
	query := db.GetTxFromContext(ctx, r.db).
		Model(&models.SubscriptionOptionModel{}).
		Where("subscription_id = ?", subscriptionID)
	if minInterval > 0 {
		query = query.Where("last_notified_at IS NULL OR last_notified_at <= ?", now.Add(-minInterval))
	}

	result := query.Updates(map[string]interface{}{
		"last_notified_at": now,
		"updated_at":       now,
	})
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim notify window: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *SubscriptionOptionRepositoryImpl) ListBroadcastEnabled(ctx context.Context) ([]*subscription.Option, error) {
	var ms []*models.SubscriptionOptionModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("allow_broadcast = ?", true).
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list broadcast options: %w", err)
	}

	return r.mapper.ToEntities(ms)
}
