package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "stagewatch/internal/shared/errors"
)

// translateDuplicate converts driver-level unique-constraint violations into
// the persistence-conflict error callers re-query on. MySQL, the sqlite test
// driver, and gorm's own sentinel all spell it differently.
func translateDuplicate(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "Duplicate entry") ||
		strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return apperrors.NewPersistenceConflictError(msg)
	}
	return err
}
