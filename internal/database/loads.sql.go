package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const lockOwner = `-- name: LockOwner :exec
SELECT pg_advisory_xact_lock(hashtext($1))
`

// LockOwner holds a transaction-scoped advisory lock keyed on the owner.
func (q *Queries) LockOwner(ctx context.Context, ownerID string) error {
	_, err := q.db.Exec(ctx, lockOwner, "loads:"+ownerID)
	return err
}

const deactivateSource = `-- name: DeactivateSource :execrows
UPDATE loads SET is_active = FALSE
WHERE owner_id = $1 AND import_source = $2 AND is_active
`

func (q *Queries) DeactivateSource(ctx context.Context, ownerID string, importSource string) (int64, error) {
	result, err := q.db.Exec(ctx, deactivateSource, ownerID, importSource)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deactivateUnsourced = `-- name: DeactivateUnsourced :execrows
UPDATE loads SET is_active = FALSE
WHERE owner_id = $1 AND import_source IS NULL AND is_active
`

func (q *Queries) DeactivateUnsourced(ctx context.Context, ownerID string) (int64, error) {
	result, err := q.db.Exec(ctx, deactivateUnsourced, ownerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const maxLoadNumber = `-- name: MaxLoadNumber :one
SELECT max(load_number::bigint)::bigint FROM loads
WHERE owner_id = $1 AND load_number ~ '^[0-9]{1,18}$'
`

// MaxLoadNumber returns the owner's highest all-digit load number over
// active and superseded records. NULL when there is none.
func (q *Queries) MaxLoadNumber(ctx context.Context, ownerID string) (pgtype.Int8, error) {
	row := q.db.QueryRow(ctx, maxLoadNumber, ownerID)
	var highest pgtype.Int8
	err := row.Scan(&highest)
	return highest, err
}

const insertLoad = `-- name: InsertLoad :exec
INSERT INTO loads (
    id, owner_id, status, is_active, import_source, import_batch_id, imported_at,
    load_number, customer_name,
    origin_city, origin_state, origin_zip,
    destination_city, destination_state, destination_zip,
    pickup_date, delivery_date,
    equipment_type, load_type, source_status, commodity,
    weight_lbs, length_ft, pieces, miles,
    target_rate, floor_rate, max_rate,
    hazmat, tarp_required, tarp_size,
    temp_required, temp_min_f, temp_max_f, notes
) VALUES (
    $1, $2, 'open', TRUE, $3, $4, $5,
    $6, $7,
    $8, $9, $10,
    $11, $12, $13,
    $14, $15,
    $16, $17, $18, $19,
    $20, $21, $22, $23,
    $24, $25, $26,
    $27, $28, $29,
    $30, $31, $32, $33
)
`

func (q *Queries) InsertLoad(ctx context.Context, arg InsertLoadParams) error {
	_, err := q.db.Exec(ctx, insertLoad,
		arg.ID,
		arg.OwnerID,
		arg.ImportSource,
		arg.ImportBatchID,
		arg.ImportedAt,
		arg.LoadNumber,
		arg.CustomerName,
		arg.OriginCity,
		arg.OriginState,
		arg.OriginZip,
		arg.DestinationCity,
		arg.DestinationState,
		arg.DestinationZip,
		arg.PickupDate,
		arg.DeliveryDate,
		arg.EquipmentType,
		arg.LoadType,
		arg.SourceStatus,
		arg.Commodity,
		arg.WeightLbs,
		arg.LengthFt,
		arg.Pieces,
		arg.Miles,
		arg.TargetRate,
		arg.FloorRate,
		arg.MaxRate,
		arg.Hazmat,
		arg.TarpRequired,
		arg.TarpSize,
		arg.TempRequired,
		arg.TempMinF,
		arg.TempMaxF,
		arg.Notes,
	)
	return err
}

const listBatches = `-- name: ListBatches :many
SELECT
    import_batch_id,
    import_source,
    MIN(imported_at)::timestamptz AS imported_at,
    COUNT(*) FILTER (WHERE is_active) AS active_count,
    COUNT(*) FILTER (WHERE NOT is_active) AS inactive_count
FROM loads
WHERE owner_id = $1 AND import_batch_id IS NOT NULL
GROUP BY import_batch_id, import_source
ORDER BY MIN(imported_at) DESC
LIMIT $2
`

func (q *Queries) ListBatches(ctx context.Context, ownerID string, limit int32) ([]ListBatchesRow, error) {
	rows, err := q.db.Query(ctx, listBatches, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListBatchesRow
	for rows.Next() {
		var i ListBatchesRow
		if err := rows.Scan(
			&i.ImportBatchID,
			&i.ImportSource,
			&i.ImportedAt,
			&i.ActiveCount,
			&i.InactiveCount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
