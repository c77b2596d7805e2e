package database

import (
	"errors"

	"github.com/lib/pq"
)

const (
	uniqueViolation = "23505"
	// raised when an id is not a valid UUID literal
	invalidTextRepresentation = "22P02"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// isMalformedID reports whether Postgres rejected an id that cannot exist in a
// UUID column. Callers treat it the same as a missing row.
func isMalformedID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation
}
