package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSessionNotFound is returned for unknown, expired or foreign sessions.
	ErrSessionNotFound = errors.New("import session not found")

	// ErrInvalidTransition is returned when a stage operation is called
	// from the wrong stage.
	ErrInvalidTransition = errors.New("invalid import stage transition")

	// ErrUnknownField is returned when a mapping names a key outside the schema.
	ErrUnknownField = errors.New("unknown target field")

	// ErrUnknownColumn is returned when a mapping names a column the sheet lacks.
	ErrUnknownColumn = errors.New("unknown source column")

	// ErrMissingOwner is returned when an operation has no owner id.
	ErrMissingOwner = errors.New("owner id is required")
)

// Format error codes.
const (
	CodeNoDataRows      = "FMT001"
	CodeCityUnresolved  = "FMT002"
	CodeUnreadableSheet = "FMT003"
)

// Row error codes.
const (
	CodeRowMissingCity = "ROW001"
	CodeRowWriteFailed = "ROW002"
)

// FormatError means the sheet cannot be turned into an intermediate table.
// It blocks progression to the mapping stage.
type FormatError struct {
	Code   string
	Source Source
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := "format error"
	if e.Source != "" {
		msg += " (" + string(e.Source) + ")"
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

// ValidationError means required fields are unmapped. Missing holds the
// field labels in schema order.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "required fields not mapped: " + strings.Join(e.Missing, ", ")
}

// RowError rejects a single row. It never aborts a batch.
type RowError struct {
	Line   int
	Code   string
	Reason string
	Err    error
}

func (e *RowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Reason, e.Err)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func (e *RowError) Unwrap() error { return e.Err }

// SystemError aborts a whole commit. No outcome is produced.
type SystemError struct {
	Op  string
	Err error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("system error during %s: %v", e.Op, e.Err)
}

func (e *SystemError) Unwrap() error { return e.Err }

// IsSystemError reports whether err is or wraps a *SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}
