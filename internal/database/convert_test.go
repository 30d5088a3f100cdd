package database

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/loadimport/internal/core"
)

func TestToPgText(t *testing.T) {
	tests := []struct {
		name  string
		in    any
		want  string
		valid bool
	}{
		{"nil", nil, "", false},
		{"blank", "   ", "", false},
		{"trimmed", "  Dallas ", "Dallas", true},
		{"non-string", 12.5, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgText(tt.in)
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.want, got.String)
		})
	}
}

func TestToPgDate(t *testing.T) {
	got := ToPgDate("2025-11-20")
	require.True(t, got.Valid)
	assert.Equal(t, time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), got.Time)

	assert.False(t, ToPgDate("11/20/2025").Valid)
	assert.False(t, ToPgDate(nil).Valid)
}

func TestToPgNumeric(t *testing.T) {
	got := ToPgNumeric(800.4)
	require.True(t, got.Valid)
	v, err := got.Value()
	require.NoError(t, err)
	assert.Equal(t, "800.4", v)

	assert.False(t, ToPgNumeric(nil).Valid)
	assert.False(t, ToPgNumeric("800").Valid)
}

func TestToPgBool(t *testing.T) {
	assert.True(t, ToPgBool(true))
	assert.False(t, ToPgBool(false))
	assert.False(t, ToPgBool(nil))
	assert.False(t, ToPgBool("yes"))
}

func TestToPgTimestamptz(t *testing.T) {
	assert.False(t, ToPgTimestamptz(time.Time{}).Valid)
	now := time.Date(2025, 11, 20, 9, 30, 0, 0, time.UTC)
	got := ToPgTimestamptz(now)
	assert.True(t, got.Valid)
	assert.Equal(t, now, got.Time)
}

func TestInsertParams(t *testing.T) {
	now := time.Date(2025, 11, 20, 9, 30, 0, 0, time.UTC)
	batch := core.NewImportBatch(core.SourceTMS, "owner-1", now)
	id := uuid.New()

	p := InsertParams(id, core.LoadRecord{
		Batch: batch,
		Fields: core.NormalizedRecord{
			core.KeyLoadNumber:      "1001",
			core.KeyOriginCity:      "Dallas",
			core.KeyOriginState:     "TX",
			core.KeyDestinationCity: "Memphis",
			core.KeyPickupDate:      "2025-11-21",
			core.KeyWeightLbs:       42000.0,
			core.KeyTargetRate:      1850.0,
			core.KeyTarpRequired:    true,
		},
	})

	assert.Equal(t, ToPgUUID(id), p.ID)
	assert.Equal(t, "owner-1", p.OwnerID)
	assert.Equal(t, string(core.SourceTMS), p.ImportSource.String)
	assert.Equal(t, batch.BatchID, p.ImportBatchID.String)
	assert.Equal(t, now, p.ImportedAt.Time)
	assert.Equal(t, "1001", p.LoadNumber)
	assert.Equal(t, "Dallas", p.OriginCity.String)
	assert.Equal(t, "TX", p.OriginState.String)
	assert.Equal(t, "Memphis", p.DestinationCity.String)
	assert.False(t, p.DestinationState.Valid)
	assert.True(t, p.PickupDate.Valid)
	assert.False(t, p.DeliveryDate.Valid)
	assert.True(t, p.WeightLbs.Valid)
	assert.True(t, p.TargetRate.Valid)
	assert.False(t, p.MaxRate.Valid)
	assert.True(t, p.TarpRequired)
	assert.False(t, p.Hazmat)
	assert.False(t, p.Notes.Valid)
}
