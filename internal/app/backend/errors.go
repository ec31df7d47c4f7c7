package backend

import (
	"errors"
	"fmt"
)

// CodeUniqueViolation is the backend error code for a unique-constraint
// violation (Postgres SQLSTATE 23505; Mongo duplicate keys are mapped to it).
const CodeUniqueViolation = "23505"

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("backend: row not found")

// Error is a structured backend failure carrying a backend-specific code.
type Error struct {
	Code    string
	Message string
	Table   string
	Err     error
}

func (e *Error) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("backend %s: %s (code %s)", e.Table, e.Message, e.Code)
	}
	return fmt.Sprintf("backend: %s (code %s)", e.Message, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Code extracts the backend error code from err, or "" when err does not
// wrap an *Error.
func Code(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
func IsUniqueViolation(err error) bool {
	return Code(err) == CodeUniqueViolation
}
