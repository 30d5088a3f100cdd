package core

// error_messages.go maps technical errors to user-facing messages with a
// code support staff can look up.
//
// # Import Errors
//
// Typed errors raised by the import pipeline are mapped first, by type:
//
//	FMT001 - No data rows found under the detected header
//	FMT002 - Neither a pickup city nor a destination city column was found
//	FMT003 - File could not be read as CSV or XLSX
//	VAL001 - Required fields are not mapped (message lists the labels)
//	VAL002 - Mapping names an unknown field or column
//	ROW001 - Row has neither an origin nor a destination city
//	ROW002 - Row could not be written
//	SYS001 - Store unavailable during commit, nothing was written
//	IMP001 - Too many imports committing at once
//	IMP002 - Import session not found or expired
//	IMP003 - Operation not allowed at the current import stage
//	AUTH001 - Request carried no owner id
//
// # Database Errors (DB001-DB007)
//
//	DB001 - Duplicate key          Patterns: "duplicate key"
//	DB002 - Unique constraint      Patterns: "unique constraint", "violates unique"
//	DB004 - Connection refused     Patterns: "connection refused"
//	DB005 - Connection reset       Patterns: "connection reset"
//	DB006 - Timeout                Patterns: "timeout"
//	DB007 - Deadlock               Patterns: "deadlock"
//
// # File, Request and Rate Errors
//
//	FILE001 - File too large       Patterns: "file too large"
//	FILE004 - No file              Patterns: "no file provided"
//	FILE005 - Empty file           Patterns: "empty file"
//	REQ001  - Request cancelled    Patterns: "context canceled"
//	REQ002  - Request timeout      Patterns: "context deadline exceeded"
//	RATE001 - Rate limited         Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check application logs for the original error.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns come first.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Import pipeline sentinels
	// =========================================================================
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "Too many imports are committing right now",
			Action:  "Please wait a moment and try again",
			Code:    "IMP001",
		},
	},
	{
		pattern: "import session not found",
		msg: UserMessage{
			Message: "Import session not found",
			Action:  "The import may have expired. Please upload the file again",
			Code:    "IMP002",
		},
	},
	{
		pattern: "invalid import stage transition",
		msg: UserMessage{
			Message: "That step is not available at this stage of the import",
			Action:  "Refresh the import and continue from the current step",
			Code:    "IMP003",
		},
	},
	{
		pattern: "owner id is required",
		msg: UserMessage{
			Message: "No account was identified for this request",
			Action:  "Sign in again and retry",
			Code:    "AUTH001",
		},
	},

	// =========================================================================
	// Database Errors (DB001-DB007)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A load with this number already exists",
			Action:  "Review the failed rows for duplicate load numbers",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your file",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Review your data for duplicate key values",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// =========================================================================
	// File Errors
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV or Excel file to import",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with data rows",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Request Errors
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "REQ002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Typed import errors are matched first, then known error patterns
// (case-insensitive). Falls back to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if msg, ok := mapTypedError(err); ok {
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func mapTypedError(err error) (UserMessage, bool) {
	var (
		fe *FormatError
		ve *ValidationError
		re *RowError
		se *SystemError
	)
	switch {
	case errors.As(err, &fe):
		msg := UserMessage{Code: fe.Code}
		switch fe.Code {
		case CodeNoDataRows:
			msg.Message = "No data rows were found in the file"
			msg.Action = "Check that the sheet has rows below the header"
		case CodeCityUnresolved:
			msg.Message = "Could not find pickup or destination city columns"
			msg.Action = "Check the export template or choose a different format"
		default:
			msg.Code = CodeUnreadableSheet
			msg.Message = "The file could not be read"
			msg.Action = "Upload a CSV or .xlsx file"
		}
		return msg, true
	case errors.As(err, &ve):
		return UserMessage{
			Message: "Required fields are not mapped: " + strings.Join(ve.Missing, ", "),
			Action:  "Map a column to each required field before previewing",
			Code:    "VAL001",
		}, true
	case errors.Is(err, ErrUnknownField), errors.Is(err, ErrUnknownColumn):
		return UserMessage{
			Message: "The mapping refers to an unknown field or column",
			Action:  "Pick a target field from the list",
			Code:    "VAL002",
		}, true
	case errors.As(err, &re):
		if re.Code == CodeRowMissingCity {
			return UserMessage{
				Message: "Row has no origin or destination city",
				Action:  "Fill in at least one city for this load",
				Code:    CodeRowMissingCity,
			}, true
		}
		return UserMessage{
			Message: "Row could not be saved",
			Action:  "Review the row values and import again",
			Code:    CodeRowWriteFailed,
		}, true
	case errors.As(err, &se):
		return UserMessage{
			Message: "The import could not be saved and nothing was written",
			Action:  "Please try again in a few moments",
			Code:    "SYS001",
		}, true
	}
	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something other than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-friendly message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err and keeps the original for logging via Unwrap.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
