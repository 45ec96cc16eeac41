package models

import (
	"time"

	"gorm.io/datatypes"

	"stagewatch/internal/shared/constants"
)

type PlaySnapshotModel struct {
	ID            uint           `gorm:"primaryKey"`
	PlayID        uint           `gorm:"not null;uniqueIndex:uk_play_city"`
	CityNorm      string         `gorm:"size:100;not null;default:'';uniqueIndex:uk_play_city"`
	Payload       datatypes.JSON `gorm:"not null"`
	LastSuccessAt *time.Time     `gorm:"index"`
	TTLSeconds    int            `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (PlaySnapshotModel) TableName() string {
	return constants.TablePlaySnapshots
}
