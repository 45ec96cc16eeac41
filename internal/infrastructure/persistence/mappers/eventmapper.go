package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"stagewatch/internal/domain/event"
	vo "stagewatch/internal/domain/play/valueobjects"
	"stagewatch/internal/infrastructure/persistence/models"
	"stagewatch/internal/shared/mapper"
)

type ChangeEventMapper interface {
	ToEntity(model *models.ChangeEventModel) (*event.ChangeEvent, error)
	ToModel(entity *event.ChangeEvent) (*models.ChangeEventModel, error)
	ToEntities(models []*models.ChangeEventModel) ([]*event.ChangeEvent, error)
}

type ChangeEventMapperImpl struct{}

func NewChangeEventMapper() ChangeEventMapper {
	return &ChangeEventMapperImpl{}
}

func (m *ChangeEventMapperImpl) ToEntity(model *models.ChangeEventModel) (*event.ChangeEvent, error) {
	if model == nil {
		return nil, nil
	}
	source, err := vo.NewSource(model.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to create event source: %w", err)
	}
	kind, err := event.NewKind(model.Kind)
	if err != nil {
		return nil, fmt.Errorf("failed to create event kind: %w", err)
	}
	var delta event.Delta
	if len(model.Delta) > 0 {
		if err := json.Unmarshal(model.Delta, &delta); err != nil {
			return nil, fmt.Errorf("failed to decode event delta: %w", err)
		}
	}
	entity, err := event.ReconstructChangeEvent(
		model.ID,
		model.PlayID,
		source,
		model.CityNorm,
		kind,
		model.ObservedAt,
		model.TicketID,
		delta,
		model.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct change event entity: %w", err)
	}
	return entity, nil
}

func (m *ChangeEventMapperImpl) ToModel(entity *event.ChangeEvent) (*models.ChangeEventModel, error) {
	if entity == nil {
		return nil, nil
	}
	var delta datatypes.JSON
	if d := entity.Delta(); d != nil {
		encoded, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("failed to encode event delta: %w", err)
		}
		delta = encoded
	}
	return &models.ChangeEventModel{
		ID:         entity.ID(),
		PlayID:     entity.PlayID(),
		Source:     entity.Source().String(),
		CityNorm:   entity.CityNorm(),
		Kind:       entity.Kind().String(),
		ObservedAt: entity.ObservedAt(),
		TicketID:   entity.TicketID(),
		Delta:      delta,
		CreatedAt:  entity.CreatedAt(),
	}, nil
}

func (m *ChangeEventMapperImpl) ToEntities(ms []*models.ChangeEventModel) ([]*event.ChangeEvent, error) {
	return mapper.MapSliceWithError(ms, m.ToEntity)
}

type TicketMapper interface {
	ToEntity(model *models.TicketModel) (*event.Ticket, error)
	ToModel(entity *event.Ticket) *models.TicketModel
	ToEntities(models []*models.TicketModel) ([]*event.Ticket, error)
}

type TicketMapperImpl struct{}

func NewTicketMapper() TicketMapper {
	return &TicketMapperImpl{}
}

func (m *TicketMapperImpl) ToEntity(model *models.TicketModel) (*event.Ticket, error) {
	if model == nil {
		return nil, nil
	}
	source, err := vo.NewSource(model.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket source: %w", err)
	}
	entity, err := event.ReconstructTicket(
		model.ID,
		model.TicketID,
		model.PlayID,
		source,
		model.Title,
		model.Location,
		model.StartTime,
		event.TicketStatus(model.Status),
		model.Price,
		model.Total,
		model.Left,
		json.RawMessage(model.Payload),
		model.SupersededAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct ticket entity: %w", err)
	}
	return entity, nil
}

func (m *TicketMapperImpl) ToModel(entity *event.Ticket) *models.TicketModel {
	if entity == nil {
		return nil
	}
	return &models.TicketModel{
		ID:           entity.ID(),
		TicketID:     entity.TicketID(),
		PlayID:       entity.PlayID(),
		Source:       entity.Source().String(),
		Title:        entity.Title(),
		Location:     entity.Location(),
		StartTime:    entity.StartTime(),
		Status:       entity.Status().String(),
		Price:        entity.Price(),
		Total:        entity.Total(),
		Left:         entity.Left(),
		Payload:      datatypes.JSON(entity.Payload()),
		SupersededAt: entity.SupersededAt(),
		CreatedAt:    entity.CreatedAt(),
		UpdatedAt:    entity.UpdatedAt(),
	}
}

func (m *TicketMapperImpl) ToEntities(ms []*models.TicketModel) ([]*event.Ticket, error) {
	return mapper.MapSliceWithError(ms, m.ToEntity)
}
