package models

import (
	"time"

	"gorm.io/datatypes"

	"stagewatch/internal/shared/constants"
)

type SendQueueModel struct {
	ID             uint   `gorm:"primaryKey"`
	SubscriptionID uint   `gorm:"not null;index"`
	EventID        string `gorm:"size:36;not null;index"`
	Target         string `gorm:"size:255;not null"`
	Payload        datatypes.JSON
	Status         string     `gorm:"size:20;not null;default:'pending';index:idx_status_retry"`
	Attempts       int        `gorm:"not null;default:0"`
	NextRetryAt    *time.Time `gorm:"index:idx_status_retry"`
	LastError      string     `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (SendQueueModel) TableName() string {
	return constants.TableSendQueue
}
