package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "duplicate key maps correctly",
			err:         errors.New("ERROR: duplicate key value violates unique constraint"),
			wantCode:    "DB001",
			wantMessage: "A load with this number already exists",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "too many imports",
			err:         fmt.Errorf("commit: %w", ErrTooManyCommits),
			wantCode:    "IMP001",
			wantMessage: "Too many imports are committing right now",
		},
		{
			name:        "session not found",
			err:         ErrSessionNotFound,
			wantCode:    "IMP002",
			wantMessage: "Import session not found",
		},
		{
			name:        "no data rows",
			err:         &FormatError{Code: CodeNoDataRows, Reason: "no data rows"},
			wantCode:    "FMT001",
			wantMessage: "No data rows were found in the file",
		},
		{
			name:        "city columns unresolved",
			err:         &FormatError{Code: CodeCityUnresolved, Source: SourceTMS, Reason: "no city columns"},
			wantCode:    "FMT002",
			wantMessage: "Could not find pickup or destination city columns",
		},
		{
			name:        "validation lists missing labels",
			err:         &ValidationError{Missing: []string{"Destination State"}},
			wantCode:    "VAL001",
			wantMessage: "Required fields are not mapped: Destination State",
		},
		{
			name:        "system error wins over driver pattern",
			err:         &SystemError{Op: "begin", Err: errors.New("dial tcp: connection refused")},
			wantCode:    "SYS001",
			wantMessage: "The import could not be saved and nothing was written",
		},
		{
			name:        "cancelled request",
			err:         fmt.Errorf("preview: %w", context.Canceled),
			wantCode:    "REQ001",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("DUPLICATE KEY value violates"),
			wantCode:    "DB001",
			wantMessage: "A load with this number already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	err := errors.New("duplicate key value violates")
	result := FormatUserError(err)

	expected := "A load with this number already exists (Code: DB001). Review the failed rows for duplicate load numbers"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  errors.New("duplicate key"),
			want: true,
		},
		{
			name: "row error is user facing",
			err:  &RowError{Line: 4, Code: CodeRowMissingCity, Reason: "no city"},
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := errors.New("ERROR: duplicate key value")
		userErr := NewUserError(techErr)

		if userErr.Error() != "A load with this number already exists" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}

		if !errors.Is(userErr, techErr) {
			t.Error("Unwrap() should return original error")
		}
	})
}
