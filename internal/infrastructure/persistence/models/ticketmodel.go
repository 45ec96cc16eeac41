package models

import (
	"time"

	"gorm.io/datatypes"

	"stagewatch/internal/shared/constants"
)

type TicketModel struct {
	ID           uint   `gorm:"primaryKey"`
	TicketID     string `gorm:"size:100;not null;index:idx_ticket_source"`
	PlayID       uint   `gorm:"not null;index"`
	Source       string `gorm:"size:50;not null;index:idx_ticket_source"`
	Title        string `gorm:"size:255"`
	Location     string `gorm:"size:255"`
	StartTime    *time.Time
	Status       string `gorm:"size:20;not null"`
	Price        *float64
	Total        *int
	Left         *int
	Payload      datatypes.JSON
	SupersededAt *time.Time `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (TicketModel) TableName() string {
	return constants.TableTickets
}
