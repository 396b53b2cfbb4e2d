package types

import (
	"errors"
	"fmt"
)

// Query and record errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyData     = errors.New("data must not be empty")
	ErrInvalidRecord = errors.New("invalid record")
	ErrAlreadyExists = errors.New("record already exists")
)

// Migration errors.
var (
	ErrInvalidMigrationName = errors.New("invalid migration file name")
	ErrDuplicateMigration   = errors.New("duplicate migration id")
	ErrChecksumMismatch     = errors.New("migration checksum mismatch")
	ErrMigrationMissing     = errors.New("applied migration has no source file")
	ErrResetNotConfirmed    = errors.New("reset requires explicit confirmation")
	ErrPendingMigrations    = errors.New("pending migrations")
)

// ValidationError reports a row or input that does not match its expected
// shape. It always wraps ErrInvalidRecord.
type ValidationError struct {
	Entity string // Entity kind, e.g. "location".
	ID     string // Record ID when known.
	Field  string // Offending field.
	Reason string // Human-readable description.
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s: %s: %s", ErrInvalidRecord, e.Entity, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s: %s: %s", ErrInvalidRecord, e.Entity, e.ID, e.Field, e.Reason)
}

// Unwrap returns ErrInvalidRecord so callers can match with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidRecord
}

func invalid(entity, id, field, reason string) error {
	return &ValidationError{Entity: entity, ID: id, Field: field, Reason: reason}
}
