package services

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"investment-service/internal/metrics"
	"investment-service/pkg/common"
)

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

// guardedUpdate applies updates to the row with the given id only while it is
// still in status from. Zero affected rows means another request got there first.
func guardedUpdate(tx *gorm.DB, model interface{}, id int, from string, updates map[string]interface{}, operation string) error {
	res := tx.Model(model).Where("id = ? AND status = ?", id, from).Updates(updates)
	if res.Error != nil {
		return dbFailure(res.Error)
	}
	if res.RowsAffected == 0 {
		metrics.RecordConflict(operation)
		return common.StateConflict("The record was modified by another request. Please retry.")
	}
	return nil
}

// lookupErr maps a failed single-row lookup to NotFound or a dependency failure.
func lookupErr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.NotFound("%s", message)
	}
	return dbFailure(err)
}

func dbFailure(err error) error {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return err
	}
	log.Error().Err(err).Msg("Database operation failed")
	return common.DependencyFailure("database operation failed", err)
}
