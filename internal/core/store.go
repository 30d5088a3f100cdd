package core

import "context"

// Store is the persistence capability the orchestrator needs.
// internal/database provides the Postgres implementation.
type Store interface {
	// BeginImport opens the transaction one commit runs in.
	BeginImport(ctx context.Context) (ImportTx, error)

	// ListBatches returns an owner's batches, newest first.
	ListBatches(ctx context.Context, ownerID string) ([]BatchSummary, error)

	// Ping checks connectivity.
	Ping(ctx context.Context) error
}

// ImportTx is a single commit's unit of work. Implementations must keep
// the transaction usable after a failed InsertLoad and must report
// connection-level failures as *SystemError.
type ImportTx interface {
	// LockOwner serializes commits for ownerID until the transaction ends.
	LockOwner(ctx context.Context, ownerID string) error

	// DeactivateSource flips is_active off for the owner's active records
	// of source. Returns the number of records changed.
	DeactivateSource(ctx context.Context, ownerID string, source Source) (int64, error)

	// DeactivateUnsourced does the same for records with no import source.
	DeactivateUnsourced(ctx context.Context, ownerID string) (int64, error)

	// MaxLoadNumber returns the highest purely numeric load number across
	// all of the owner's records. found is false when there is none.
	MaxLoadNumber(ctx context.Context, ownerID string) (highest int64, found bool, err error)

	// InsertLoad writes one record.
	InsertLoad(ctx context.Context, rec LoadRecord) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
