package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"stagewatch/internal/domain/play"
	vo "stagewatch/internal/domain/play/valueobjects"
	"stagewatch/internal/infrastructure/persistence/models"
	"stagewatch/internal/shared/mapper"
)

type PlayMapper interface {
	ToEntity(model *models.PlayModel) (*play.Play, error)
	ToModel(entity *play.Play) *models.PlayModel
	ToEntities(models []*models.PlayModel) ([]*play.Play, error)
}

type PlayMapperImpl struct{}

func NewPlayMapper() PlayMapper {
	return &PlayMapperImpl{}
}

func (m *PlayMapperImpl) ToEntity(model *models.PlayModel) (*play.Play, error) {
	if model == nil {
		return nil, nil
	}
	entity, err := play.ReconstructPlay(
		model.ID,
		model.Name,
		model.NameNorm,
		model.DefaultCityNorm,
		model.Note,
		model.PendingReview,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct play entity: %w", err)
	}
	return entity, nil
}

func (m *PlayMapperImpl) ToModel(entity *play.Play) *models.PlayModel {
	if entity == nil {
		return nil
	}
	return &models.PlayModel{
		ID:              entity.ID(),
		Name:            entity.Name(),
		NameNorm:        entity.NameNorm(),
		DefaultCityNorm: entity.DefaultCityNorm(),
		Note:            entity.Note(),
		PendingReview:   entity.PendingReview(),
		CreatedAt:       entity.CreatedAt(),
		UpdatedAt:       entity.UpdatedAt(),
	}
}

func (m *PlayMapperImpl) ToEntities(ms []*models.PlayModel) ([]*play.Play, error) {
	return mapper.MapSliceWithError(ms, m.ToEntity)
}

type PlayAliasMapper interface {
	ToEntity(model *models.PlayAliasModel) (*play.Alias, error)
	ToModel(entity *play.Alias) *models.PlayAliasModel
	ToEntities(models []*models.PlayAliasModel) ([]*play.Alias, error)
}

type PlayAliasMapperImpl struct{}

func NewPlayAliasMapper() PlayAliasMapper {
	return &PlayAliasMapperImpl{}
}

func (m *PlayAliasMapperImpl) ToEntity(model *models.PlayAliasModel) (*play.Alias, error) {
	if model == nil {
		return nil, nil
	}
	source, err := vo.NewSource(model.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to create alias source: %w", err)
	}
	entity, err := play.ReconstructAlias(
		model.ID,
		model.PlayID,
		model.Alias,
		model.AliasNorm,
		source,
		model.Weight,
		model.NoResponseCount,
		model.LastUsedAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct alias entity: %w", err)
	}
	return entity, nil
}

func (m *PlayAliasMapperImpl) ToModel(entity *play.Alias) *models.PlayAliasModel {
	if entity == nil {
		return nil
	}
	return &models.PlayAliasModel{
		ID:              entity.ID(),
		PlayID:          entity.PlayID(),
		Alias:           entity.Alias(),
		AliasNorm:       entity.AliasNorm(),
		Source:          entity.Source().String(),
		Weight:          entity.Weight(),
		NoResponseCount: entity.NoResponseCount(),
		LastUsedAt:      entity.LastUsedAt(),
		CreatedAt:       entity.CreatedAt(),
		UpdatedAt:       entity.UpdatedAt(),
	}
}

func (m *PlayAliasMapperImpl) ToEntities(ms []*models.PlayAliasModel) ([]*play.Alias, error) {
	return mapper.MapSliceWithError(ms, m.ToEntity)
}

type PlaySourceLinkMapper interface {
	ToEntity(model *models.PlaySourceLinkModel) (*play.SourceLink, error)
	ToModel(entity *play.SourceLink) *models.PlaySourceLinkModel
	ToEntities(models []*models.PlaySourceLinkModel) ([]*play.SourceLink, error)
}

type PlaySourceLinkMapperImpl struct{}

func NewPlaySourceLinkMapper() PlaySourceLinkMapper {
	return &PlaySourceLinkMapperImpl{}
}

func (m *PlaySourceLinkMapperImpl) ToEntity(model *models.PlaySourceLinkModel) (*play.SourceLink, error) {
	if model == nil {
		return nil, nil
	}
	source, err := vo.NewSource(model.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to create link source: %w", err)
	}
	entity, err := play.ReconstructSourceLink(
		model.ID,
		model.PlayID,
		source,
		model.SourceID,
		model.TitleAtSource,
		model.CityHint,
		model.Confidence,
		model.LastSyncAt,
		model.PayloadHash,
		model.LastError,
		model.LastErrorAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct source link entity: %w", err)
	}
	return entity, nil
}

func (m *PlaySourceLinkMapperImpl) ToModel(entity *play.SourceLink) *models.PlaySourceLinkModel {
	if entity == nil {
		return nil
	}
	return &models.PlaySourceLinkModel{
		ID:            entity.ID(),
		PlayID:        entity.PlayID(),
		Source:        entity.Source().String(),
		SourceID:      entity.SourceID(),
		TitleAtSource: entity.TitleAtSource(),
		CityHint:      entity.CityHint(),
		Confidence:    entity.Confidence(),
		LastSyncAt:    entity.LastSyncAt(),
		PayloadHash:   entity.PayloadHash(),
		LastError:     entity.LastError(),
		LastErrorAt:   entity.LastErrorAt(),
		CreatedAt:     entity.CreatedAt(),
		UpdatedAt:     entity.UpdatedAt(),
	}
}

func (m *PlaySourceLinkMapperImpl) ToEntities(ms []*models.PlaySourceLinkModel) ([]*play.SourceLink, error) {
	return mapper.MapSliceWithError(ms, m.ToEntity)
}

type PlaySnapshotMapper interface {
	ToEntity(model *models.PlaySnapshotModel) (*play.Snapshot, error)
	ToModel(entity *play.Snapshot) *models.PlaySnapshotModel
}

type PlaySnapshotMapperImpl struct{}

func NewPlaySnapshotMapper() PlaySnapshotMapper {
	return &PlaySnapshotMapperImpl{}
}

func (m *PlaySnapshotMapperImpl) ToEntity(model *models.PlaySnapshotModel) (*play.Snapshot, error) {
	if model == nil {
		return nil, nil
	}
	entity, err := play.ReconstructSnapshot(
		model.ID,
		model.PlayID,
		model.CityNorm,
		json.RawMessage(model.Payload),
		model.LastSuccessAt,
		model.TTLSeconds,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct snapshot entity: %w", err)
	}
	return entity, nil
}

func (m *PlaySnapshotMapperImpl) ToModel(entity *play.Snapshot) *models.PlaySnapshotModel {
	if entity == nil {
		return nil
	}
	return &models.PlaySnapshotModel{
		ID:            entity.ID(),
		PlayID:        entity.PlayID(),
		CityNorm:      entity.CityNorm(),
		Payload:       datatypes.JSON(entity.Payload()),
		LastSuccessAt: entity.LastSuccessAt(),
		TTLSeconds:    entity.TTLSeconds(),
		CreatedAt:     entity.CreatedAt(),
		UpdatedAt:     entity.UpdatedAt(),
	}
}
