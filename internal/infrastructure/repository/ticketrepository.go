package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"stagewatch/internal/domain/event"
	vo "stagewatch/internal/domain/play/valueobjects"
	"stagewatch/internal/infrastructure/persistence/mappers"
	"stagewatch/internal/infrastructure/persistence/models"
	"stagewatch/internal/shared/db"
	"stagewatch/internal/shared/errors"
)

type TicketRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.TicketMapper
}

func NewTicketRepository(database *gorm.DB) event.TicketRepository {
	return &TicketRepositoryImpl{
		db:     database,
		mapper: mappers.NewTicketMapper(),
	}
}

func (r *TicketRepositoryImpl) Create(ctx context.Context, t *event.Ticket) error {
	model := r.mapper.ToModel(t)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	if err := t.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set ticket ID: %w", err)
	}
	return nil
}

func (r *TicketRepositoryImpl) GetCurrent(ctx context.Context, source vo.Source, ticketID string) (*event.Ticket, error) {
	var model models.TicketModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("source = ? AND ticket_id = ? AND superseded_at IS NULL", source.String(), ticketID).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("ticket not found")
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *TicketRepositoryImpl) Update(ctx context.Context, t *event.Ticket) error {
	model := r.mapper.ToModel(t)

	result := db.GetTxFromContext(ctx, r.db).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update ticket: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("ticket not found")
	}
	return nil
}

func (r *TicketRepositoryImpl) ListCurrentByPlayID(ctx context.Context, playID uint) ([]*event.Ticket, error) {
	var ms []*models.TicketModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("play_id = ? AND superseded_at IS NULL", playID).
		Order("start_time ASC").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	return r.mapper.ToEntities(ms)
}
