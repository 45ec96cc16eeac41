package models

import (
	"time"

	"gorm.io/datatypes"

	"stagewatch/internal/shared/constants"
)

type SubscriptionModel struct {
	ID           uint   `gorm:"primaryKey"`
	SubscriberID string `gorm:"size:100;not null;uniqueIndex"`
	Endpoint     string `gorm:"size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

type SubscriptionTargetModel struct {
	ID             uint   `gorm:"primaryKey"`
	SubscriptionID uint   `gorm:"not null;uniqueIndex:uk_sub_kind_target"`
	Kind           string `gorm:"size:20;not null;uniqueIndex:uk_sub_kind_target;index:idx_kind_target"`
	TargetID       string `gorm:"size:100;not null;uniqueIndex:uk_sub_kind_target;index:idx_kind_target"`
	Name           string `gorm:"size:255"`
	CityFilter     string `gorm:"size:100;not null;default:''"`
	Flags          datatypes.JSON
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (SubscriptionTargetModel) TableName() string {
	return constants.TableSubscriptionTargets
}

type SubscriptionOptionModel struct {
	ID             uint   `gorm:"primaryKey"`
	SubscriptionID uint   `gorm:"not null;uniqueIndex"`
	Mute           bool   `gorm:"not null;default:false"`
	Frequency      string `gorm:"size:20;not null;default:'realtime'"`
	AllowBroadcast bool   `gorm:"not null;default:false;index"`
	LastNotifiedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (SubscriptionOptionModel) TableName() string {
	return constants.TableSubscriptionOptions
}
