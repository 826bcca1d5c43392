package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the services branch on.
const (
	CodeExclusionViolation        = "23P01"
	CodeForeignKeyViolation       = "23503"
	CodeInvalidTextRepresentation = "22P02"
)

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// IsExclusionViolation reports a rejected row from an EXCLUDE constraint,
// e.g. two overlapping ranges for the same key.
func IsExclusionViolation(err error) bool { return hasCode(err, CodeExclusionViolation) }

func IsForeignKeyViolation(err error) bool { return hasCode(err, CodeForeignKeyViolation) }

// IsInvalidTextRepresentation is raised for malformed literals such as a bad uuid.
func IsInvalidTextRepresentation(err error) bool {
	return hasCode(err, CodeInvalidTextRepresentation)
}
