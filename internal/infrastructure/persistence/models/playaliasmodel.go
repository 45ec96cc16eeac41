package models

import (
	"time"

	"stagewatch/internal/shared/constants"
)

type PlayAliasModel struct {
	ID              uint   `gorm:"primaryKey"`
	PlayID          uint   `gorm:"not null;index"`
	Alias           string `gorm:"size:255;not null"`
	AliasNorm       string `gorm:"size:255;not null;uniqueIndex:uk_alias_source"`
	Source          string `gorm:"size:50;not null;uniqueIndex:uk_alias_source"`
	Weight          int    `gorm:"not null;default:0"`
	NoResponseCount int    `gorm:"not null;default:0"`
	LastUsedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (PlayAliasModel) TableName() string {
	return constants.TablePlayAliases
}
