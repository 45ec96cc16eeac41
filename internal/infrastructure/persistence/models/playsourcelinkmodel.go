package models

import (
	"time"

	"stagewatch/internal/shared/constants"
)

type PlaySourceLinkModel struct {
	ID            uint    `gorm:"primaryKey"`
	PlayID        uint    `gorm:"not null;uniqueIndex:uk_play_source"`
	Source        string  `gorm:"size:50;not null;uniqueIndex:uk_play_source;uniqueIndex:uk_source_record"`
	SourceID      string  `gorm:"size:100;not null;uniqueIndex:uk_source_record"`
	TitleAtSource string  `gorm:"size:255"`
	CityHint      string  `gorm:"size:100"`
	Confidence    float64 `gorm:"not null;default:0"`
	LastSyncAt    *time.Time
	PayloadHash   string `gorm:"size:64;not null;default:''"`
	LastError     string `gorm:"type:text"`
	LastErrorAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (PlaySourceLinkModel) TableName() string {
	return constants.TablePlaySourceLinks
}
