package models

import (
	"time"

	"stagewatch/internal/shared/constants"
)

type PlayModel struct {
	ID              uint   `gorm:"primaryKey"`
	Name            string `gorm:"size:255;not null"`
	NameNorm        string `gorm:"size:255;not null;uniqueIndex:uk_name_city"`
	DefaultCityNorm string `gorm:"size:100;not null;default:'';uniqueIndex:uk_name_city"`
	Note            string `gorm:"type:text"`
	PendingReview   bool   `gorm:"not null;default:false;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (PlayModel) TableName() string {
	return constants.TablePlays
}
