package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"stagewatch/internal/domain/subscription"
	vo "stagewatch/internal/domain/subscription/valueobjects"
	"stagewatch/internal/infrastructure/persistence/models"
	"stagewatch/internal/shared/mapper"
)

type SubscriptionMapper interface {
	ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error)
	ToModel(entity *subscription.Subscription) *models.SubscriptionModel
}

type SubscriptionMapperImpl struct{}

func NewSubscriptionMapper() SubscriptionMapper {
	return &SubscriptionMapperImpl{}
}

func (m *SubscriptionMapperImpl) ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	if model == nil {
		return nil, nil
	}
	entity, err := subscription.ReconstructSubscription(
		model.ID,
		model.SubscriberID,
		model.Endpoint,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct subscription entity: %w", err)
	}
	return entity, nil
}

func (m *SubscriptionMapperImpl) ToModel(entity *subscription.Subscription) *models.SubscriptionModel {
	if entity == nil {
		return nil
	}
	return &models.SubscriptionModel{
		ID:           entity.ID(),
		SubscriberID: entity.SubscriberID(),
		Endpoint:     entity.Endpoint(),
		CreatedAt:    entity.CreatedAt(),
		UpdatedAt:    entity.UpdatedAt(),
	}
}

type SubscriptionTargetMapper interface {
	ToEntity(model *models.SubscriptionTargetModel) (*subscription.Target, error)
	ToModel(entity *subscription.Target) (*models.SubscriptionTargetModel, error)
	ToEntities(models []*models.SubscriptionTargetModel) ([]*subscription.Target, error)
}

type SubscriptionTargetMapperImpl struct{}

func NewSubscriptionTargetMapper() SubscriptionTargetMapper {
	return &SubscriptionTargetMapperImpl{}
}

func (m *SubscriptionTargetMapperImpl) ToEntity(model *models.SubscriptionTargetModel) (*subscription.Target, error) {
	if model == nil {
		return nil, nil
	}
	kind, err := vo.NewTargetKind(model.Kind)
	if err != nil {
		return nil, fmt.Errorf("failed to create target kind: %w", err)
	}
	var flags map[string]bool
	if len(model.Flags) > 0 {
		if err := json.Unmarshal(model.Flags, &flags); err != nil {
			return nil, fmt.Errorf("failed to decode target flags: %w", err)
		}
	}
	entity, err := subscription.ReconstructTarget(
		model.ID,
		model.SubscriptionID,
		kind,
		model.TargetID,
		model.Name,
		model.CityFilter,
		flags,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct target entity: %w", err)
	}
	return entity, nil
}

func (m *SubscriptionTargetMapperImpl) ToModel(entity *subscription.Target) (*models.SubscriptionTargetModel, error) {
	if entity == nil {
		return nil, nil
	}
	var flags datatypes.JSON
	if f := entity.Flags(); f != nil {
		encoded, err := json.Marshal(f)
		if err != nil {
			return nil, fmt.Errorf("failed to encode target flags: %w", err)
		}
		flags = encoded
	}
	return &models.SubscriptionTargetModel{
		ID:             entity.ID(),
		SubscriptionID: entity.SubscriptionID(),
		Kind:           entity.Kind().String(),
		TargetID:       entity.TargetID(),
		Name:           entity.Name(),
		CityFilter:     entity.CityFilter(),
		Flags:          flags,
		CreatedAt:      entity.CreatedAt(),
		UpdatedAt:      entity.UpdatedAt(),
	}, nil
}

func (m *SubscriptionTargetMapperImpl) ToEntities(ms []*models.SubscriptionTargetModel) ([]*subscription.Target, error) {
	return mapper.MapSliceWithError(ms, m.ToEntity)
}

type SubscriptionOptionMapper interface {
	ToEntity(model *models.SubscriptionOptionModel) (*subscription.Option, error)
	ToModel(entity *subscription.Option) *models.SubscriptionOptionModel
	ToEntities(models []*models.SubscriptionOptionModel) ([]*subscription.Option, error)
}

type SubscriptionOptionMapperImpl struct{}

func NewSubscriptionOptionMapper() SubscriptionOptionMapper {
	return &SubscriptionOptionMapperImpl{}
}

func (m *SubscriptionOptionMapperImpl) ToEntity(model *models.SubscriptionOptionModel) (*subscription.Option, error) {
	if model == nil {
		return nil, nil
	}
	freq, err := vo.NewFrequency(model.Frequency)
	if err != nil {
		return nil, fmt.Errorf("failed to create frequency: %w", err)
	}
	entity, err := subscription.ReconstructOption(
		model.ID,
		model.SubscriptionID,
		model.Mute,
		freq,
		model.AllowBroadcast,
		model.LastNotifiedAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct option entity: %w", err)
	}
	return entity, nil
}

func (m *SubscriptionOptionMapperImpl) ToModel(entity *subscription.Option) *models.SubscriptionOptionModel {
	if entity == nil {
		return nil
	}
	return &models.SubscriptionOptionModel{
		ID:             entity.ID(),
		SubscriptionID: entity.SubscriptionID(),
		Mute:           entity.Muted(),
		Frequency:      entity.Frequency().String(),
		AllowBroadcast: entity.AllowBroadcast(),
		LastNotifiedAt: entity.LastNotifiedAt(),
		CreatedAt:      entity.CreatedAt(),
		UpdatedAt:      entity.UpdatedAt(),
	}
}

func (m *SubscriptionOptionMapperImpl) ToEntities(ms []*models.SubscriptionOptionModel) ([]*subscription.Option, error) {
	return mapper.MapSliceWithError(ms, m.ToEntity)
}
