package storage

import (
	"errors"
	"fmt"

	"github.com/belvedhair/booking/libs/db"
	"github.com/belvedhair/booking/services/booking-service/internal/apperr"
	"github.com/jackc/pgx/v5"
)

func IsConflict(err error) bool {
	return db.IsExclusionViolation(err)
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// mapError translates driver errors into the service's sentinel errors.
// A malformed id or a dangling staff reference both mean the row does not exist.
func mapError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case IsConflict(err):
		return fmt.Errorf("%s: %w", what, apperr.ErrSlotConflict)
	case IsNotFound(err), db.IsForeignKeyViolation(err), db.IsInvalidTextRepresentation(err):
		return fmt.Errorf("%s: %w", what, apperr.ErrNotFound)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
