package database

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsStatementError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"check violation wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23514"}), true},
		{"numeric out of range", &pgconn.PgError{Code: "22003"}, true},
		{"undefined column", &pgconn.PgError{Code: "42703"}, false},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, false},
		{"plain error", errors.New("conn closed"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isStatementError(tt.err))
		})
	}
}

func TestMaxLoadNumberQuery(t *testing.T) {
	q := strings.ToLower(maxLoadNumber)
	assert.Contains(t, q, "max(load_number::bigint)")
	assert.Contains(t, q, "owner_id = $1")
	assert.NotContains(t, q, "limit", "every record of the owner is considered")
	assert.NotContains(t, q, "is_active", "superseded records still hold their numbers")
}
