package database

import (
	"github.com/lib/pq"
	"github.com/smartinventory/smartinventory-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError.
// Returns nil if the error is not a pq.Error or has no mapping.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	case "23514": // check_violation
		return errors.Validation(map[string]string{
			"resource": "unknown snapshot resource (" + pqErr.Constraint + ")",
		})
	case "23505": // unique_violation
		return errors.Conflict("a snapshot for this resource already exists")
	case "23502": // not_null_violation
		col := pqErr.Column
		if col == "" {
			col = "document"
		}
		return errors.Validation(map[string]string{col: "must not be empty"})
	case "42P01": // undefined_table
		return errors.Internal("snapshot table missing; run inventory-tool migrate up")
	default:
		return nil
	}
}
