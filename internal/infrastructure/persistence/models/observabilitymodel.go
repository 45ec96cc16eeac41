package models

import (
	"time"

	"gorm.io/datatypes"

	"stagewatch/internal/shared/constants"
)

type MetricModel struct {
	ID        uint    `gorm:"primaryKey"`
	Name      string  `gorm:"size:100;not null;index:idx_metric_name_at"`
	Value     float64 `gorm:"not null"`
	Labels    datatypes.JSON
	At        time.Time `gorm:"not null;index:idx_metric_name_at"`
	CreatedAt time.Time
}

func (MetricModel) TableName() string {
	return constants.TableMetrics
}

type ErrorLogModel struct {
	ID        uint   `gorm:"primaryKey"`
	Scope     string `gorm:"size:50;not null;index"`
	Code      string `gorm:"size:50;not null"`
	Message   string `gorm:"type:text;not null"`
	Context   datatypes.JSON
	At        time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

func (ErrorLogModel) TableName() string {
	return constants.TableErrorLogs
}
