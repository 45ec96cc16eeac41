package migration

import (
	"fmt"

	"gorm.io/gorm"

	"stagewatch/internal/infrastructure/persistence/models"
	"stagewatch/internal/shared/logger"
)

// AutoMigrateModels lists every model the schema carries, in dependency
// order.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.PlayModel{},
		&models.PlayAliasModel{},
		&models.PlaySourceLinkModel{},
		&models.PlaySnapshotModel{},
		&models.ChangeEventModel{},
		&models.TicketModel{},
		&models.SubscriptionModel{},
		&models.SubscriptionTargetModel{},
		&models.SubscriptionOptionModel{},
		&models.SendQueueModel{},
		&models.MetricModel{},
		&models.ErrorLogModel{},
	}
}

// GormAutoMigrateStrategy lets GORM derive the schema from the models.
type GormAutoMigrateStrategy struct {
	logger logger.Interface
}

func NewGormAutoMigrateStrategy() Strategy {
	return &GormAutoMigrateStrategy{
		logger: logger.NewLogger().With("component", "migration.automigrate"),
	}
}

func (s *GormAutoMigrateStrategy) Migrate(db *gorm.DB, models ...interface{}) error {
	if len(models) == 0 {
		models = AutoMigrateModels()
	}

	s.logger.Infow("running gorm automigrate", "models", len(models))

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

func (s *GormAutoMigrateStrategy) GetName() string {
	return "gorm_auto_migrate"
}
