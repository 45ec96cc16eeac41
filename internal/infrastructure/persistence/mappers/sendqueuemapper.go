package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"stagewatch/internal/domain/dispatch"
	"stagewatch/internal/infrastructure/persistence/models"
	"stagewatch/internal/shared/mapper"
)

type SendQueueMapper interface {
	ToEntity(model *models.SendQueueModel) (*dispatch.QueueEntry, error)
	ToModel(entity *dispatch.QueueEntry) *models.SendQueueModel
	ToEntities(models []*models.SendQueueModel) ([]*dispatch.QueueEntry, error)
}

type SendQueueMapperImpl struct{}

func NewSendQueueMapper() SendQueueMapper {
	return &SendQueueMapperImpl{}
}

func (m *SendQueueMapperImpl) ToEntity(model *models.SendQueueModel) (*dispatch.QueueEntry, error) {
	if model == nil {
		return nil, nil
	}
	entity, err := dispatch.ReconstructQueueEntry(
		model.ID,
		model.SubscriptionID,
		model.EventID,
		model.Target,
		json.RawMessage(model.Payload),
		dispatch.Status(model.Status),
		model.Attempts,
		model.NextRetryAt,
		model.LastError,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct queue entry entity: %w", err)
	}
	return entity, nil
}

func (m *SendQueueMapperImpl) ToModel(entity *dispatch.QueueEntry) *models.SendQueueModel {
	if entity == nil {
		return nil
	}
	return &models.SendQueueModel{
		ID:             entity.ID(),
		SubscriptionID: entity.SubscriptionID(),
		EventID:        entity.EventID(),
		Target:         entity.Target(),
		Payload:        datatypes.JSON(entity.Payload()),
		Status:         entity.Status().String(),
		Attempts:       entity.Attempts(),
		NextRetryAt:    entity.NextRetryAt(),
		LastError:      entity.LastError(),
		CreatedAt:      entity.CreatedAt(),
		UpdatedAt:      entity.UpdatedAt(),
	}
}

func (m *SendQueueMapperImpl) ToEntities(ms []*models.SendQueueModel) ([]*dispatch.QueueEntry, error) {
	return mapper.MapSliceWithError(ms, m.ToEntity)
}
