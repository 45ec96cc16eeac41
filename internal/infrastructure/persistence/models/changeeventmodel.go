package models

import (
	"time"

	"gorm.io/datatypes"

	"stagewatch/internal/shared/constants"
)

// ChangeEventModel rows are append-only; nothing updates or deletes them.
type ChangeEventModel struct {
	ID         string    `gorm:"primaryKey;size:36"`
	PlayID     uint      `gorm:"not null;index:idx_play_observed"`
	Source     string    `gorm:"size:50;not null"`
	CityNorm   string    `gorm:"size:100;not null;default:''"`
	Kind       string    `gorm:"size:20;not null"`
	ObservedAt time.Time `gorm:"not null;index:idx_play_observed;index"`
	TicketID   string    `gorm:"size:100;not null;default:''"`
	Delta      datatypes.JSON
	CreatedAt  time.Time
}

func (ChangeEventModel) TableName() string {
	return constants.TableChangeEvents
}
