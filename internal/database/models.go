package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type InsertLoadParams struct {
	ID               pgtype.UUID
	OwnerID          string
	ImportSource     pgtype.Text
	ImportBatchID    pgtype.Text
	ImportedAt       pgtype.Timestamptz
	LoadNumber       string
	CustomerName     pgtype.Text
	OriginCity       pgtype.Text
	OriginState      pgtype.Text
	OriginZip        pgtype.Text
	DestinationCity  pgtype.Text
	DestinationState pgtype.Text
	DestinationZip   pgtype.Text
	PickupDate       pgtype.Date
	DeliveryDate     pgtype.Date
	EquipmentType    pgtype.Text
	LoadType         pgtype.Text
	SourceStatus     pgtype.Text
	Commodity        pgtype.Text
	WeightLbs        pgtype.Numeric
	LengthFt         pgtype.Numeric
	Pieces           pgtype.Numeric
	Miles            pgtype.Numeric
	TargetRate       pgtype.Numeric
	FloorRate        pgtype.Numeric
	MaxRate          pgtype.Numeric
	Hazmat           bool
	TarpRequired     bool
	TarpSize         pgtype.Text
	TempRequired     bool
	TempMinF         pgtype.Numeric
	TempMaxF         pgtype.Numeric
	Notes            pgtype.Text
}

type ListBatchesRow struct {
	ImportBatchID string
	ImportSource  pgtype.Text
	ImportedAt    pgtype.Timestamptz
	ActiveCount   int64
	InactiveCount int64
}
