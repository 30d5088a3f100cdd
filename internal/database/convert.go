package database

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/loadimport/internal/core"
)

// ToPgText converts a normalized value to pgtype.Text.
// nil and blank strings are NULL.
func ToPgText(v any) pgtype.Text {
	s, ok := v.(string)
	if !ok {
		return pgtype.Text{Valid: false}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDate converts a YYYY-MM-DD value to pgtype.Date.
func ToPgDate(v any) pgtype.Date {
	s, ok := v.(string)
	if !ok {
		return pgtype.Date{Valid: false}
	}
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: t, Valid: true}
}

// ToPgNumeric converts a float64 value to pgtype.Numeric using the
// shortest decimal representation, so 800.4 is stored as 800.4 and not
// as its binary expansion.
func ToPgNumeric(v any) pgtype.Numeric {
	f, ok := v.(float64)
	if !ok {
		return pgtype.Numeric{Valid: false}
	}
	var n pgtype.Numeric
	if err := n.Scan(decimal.NewFromFloat(f).String()); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

// ToPgBool reports a normalized flag; anything but true is false.
func ToPgBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// ToPgUUID converts a uuid.UUID to pgtype.UUID.
func ToPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// ToPgTimestamptz converts a time to pgtype.Timestamptz. The zero time is NULL.
func ToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// InsertParams builds the insert for one record. Generic imports are
// stored with their source so later imports of other sources never
// treat them as legacy rows.
func InsertParams(id uuid.UUID, rec core.LoadRecord) InsertLoadParams {
	f := rec.Fields
	return InsertLoadParams{
		ID:               ToPgUUID(id),
		OwnerID:          rec.Batch.OwnerID,
		ImportSource:     ToPgText(string(rec.Batch.Source)),
		ImportBatchID:    ToPgText(rec.Batch.BatchID),
		ImportedAt:       ToPgTimestamptz(rec.Batch.ImportedAt),
		LoadNumber:       f.String(core.KeyLoadNumber),
		CustomerName:     ToPgText(f[core.KeyCustomerName]),
		OriginCity:       ToPgText(f[core.KeyOriginCity]),
		OriginState:      ToPgText(f[core.KeyOriginState]),
		OriginZip:        ToPgText(f[core.KeyOriginZip]),
		DestinationCity:  ToPgText(f[core.KeyDestinationCity]),
		DestinationState: ToPgText(f[core.KeyDestinationState]),
		DestinationZip:   ToPgText(f[core.KeyDestinationZip]),
		PickupDate:       ToPgDate(f[core.KeyPickupDate]),
		DeliveryDate:     ToPgDate(f[core.KeyDeliveryDate]),
		EquipmentType:    ToPgText(f[core.KeyEquipmentType]),
		LoadType:         ToPgText(f[core.KeyLoadType]),
		SourceStatus:     ToPgText(f[core.KeySourceStatus]),
		Commodity:        ToPgText(f[core.KeyCommodity]),
		WeightLbs:        ToPgNumeric(f[core.KeyWeightLbs]),
		LengthFt:         ToPgNumeric(f[core.KeyLengthFt]),
		Pieces:           ToPgNumeric(f[core.KeyPieces]),
		Miles:            ToPgNumeric(f[core.KeyMiles]),
		TargetRate:       ToPgNumeric(f[core.KeyTargetRate]),
		FloorRate:        ToPgNumeric(f[core.KeyFloorRate]),
		MaxRate:          ToPgNumeric(f[core.KeyMaxRate]),
		Hazmat:           ToPgBool(f[core.KeyHazmat]),
		TarpRequired:     ToPgBool(f[core.KeyTarpRequired]),
		TarpSize:         ToPgText(f[core.KeyTarpSize]),
		TempRequired:     ToPgBool(f[core.KeyTempRequired]),
		TempMinF:         ToPgNumeric(f[core.KeyTempMinF]),
		TempMaxF:         ToPgNumeric(f[core.KeyTempMaxF]),
		Notes:            ToPgText(f[core.KeyNotes]),
	}
}
