package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"stagewatch/internal/domain/observability"
	"stagewatch/internal/infrastructure/persistence/models"
	"stagewatch/internal/shared/db"
)

// ObservabilityRepositoryImpl persists metrics and error records. Both
// tables are insert-only; nothing in the pipeline reads them back.
type ObservabilityRepositoryImpl struct {
	db *gorm.DB
}

func NewObservabilityRepository(database *gorm.DB) observability.Recorder {
	return &ObservabilityRepositoryImpl{db: database}
}

func (r *ObservabilityRepositoryImpl) RecordMetric(ctx context.Context, m observability.Metric) error {
	labels, err := marshalLabels(m.Labels)
	if err != nil {
		return fmt.Errorf("failed to encode metric labels: %w", err)
	}

	model := &models.MetricModel{
		Name:   m.Name,
		Value:  m.Value,
		Labels: labels,
		At:     m.At.UTC(),
	}

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to record metric: %w", err)
	}
	return nil
}

func (r *ObservabilityRepositoryImpl) RecordError(ctx context.Context, e observability.ErrorRecord) error {
	ectx, err := marshalLabels(e.Context)
	if err != nil {
		return fmt.Errorf("failed to encode error context: %w", err)
	}

	model := &models.ErrorLogModel{
		Scope:   e.Scope,
		Code:    e.Code,
		Message: e.Message,
		Context: ectx,
		At:      e.At.UTC(),
	}

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to record error: %w", err)
	}
	return nil
}

func marshalLabels(labels map[string]string) (datatypes.JSON, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(labels)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
