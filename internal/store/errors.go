package store

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned by updates and deletes that matched no row.
	ErrNotFound = errors.New("not found")

	// ErrInUse is returned when deleting a record that claims still reference.
	ErrInUse = errors.New("still referenced by claims")

	// ErrDuplicateClaimID is returned when a claim is inserted with a
	// claim_id that already exists.
	ErrDuplicateClaimID = errors.New("duplicate claim_id")

	// ErrDuplicateEmail is returned when an active user already has the email.
	ErrDuplicateEmail = errors.New("email already in use")
)

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure on the given table.column.
func isUniqueViolation(err error, column string) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return false
	}
	msg := se.Error()
	return strings.Contains(msg, "UNIQUE") && strings.Contains(msg, column)
}
