package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/loadimport/internal/core"
)

// DefaultBatchHistoryLimit caps ListBatches.
const DefaultBatchHistoryLimit = 100

// Store implements core.Store on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// BeginImport opens the transaction a commit runs in.
func (s *Store) BeginImport(ctx context.Context) (core.ImportTx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, &core.SystemError{Op: "begin transaction", Err: err}
	}
	return &importTx{tx: tx, q: New(tx)}, nil
}

// ListBatches returns the owner's most recent batches, newest first.
func (s *Store) ListBatches(ctx context.Context, ownerID string) ([]core.BatchSummary, error) {
	rows, err := New(s.pool).ListBatches(ctx, ownerID, DefaultBatchHistoryLimit)
	if err != nil {
		return nil, err
	}
	out := make([]core.BatchSummary, len(rows))
	for i, r := range rows {
		out[i] = core.BatchSummary{
			BatchID:       r.ImportBatchID,
			Source:        core.Source(r.ImportSource.String),
			ImportedAt:    r.ImportedAt.Time,
			ActiveCount:   r.ActiveCount,
			InactiveCount: r.InactiveCount,
		}
	}
	return out, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// importTx runs one commit. Each insert gets its own savepoint so a
// rejected row does not poison the transaction.
type importTx struct {
	tx  pgx.Tx
	q   *Queries
	seq int
}

func (t *importTx) LockOwner(ctx context.Context, ownerID string) error {
	if err := t.q.LockOwner(ctx, ownerID); err != nil {
		return &core.SystemError{Op: "lock owner", Err: err}
	}
	return nil
}

func (t *importTx) DeactivateSource(ctx context.Context, ownerID string, source core.Source) (int64, error) {
	n, err := t.q.DeactivateSource(ctx, ownerID, string(source))
	if err != nil {
		return 0, &core.SystemError{Op: "deactivate source", Err: err}
	}
	return n, nil
}

func (t *importTx) DeactivateUnsourced(ctx context.Context, ownerID string) (int64, error) {
	n, err := t.q.DeactivateUnsourced(ctx, ownerID)
	if err != nil {
		return 0, &core.SystemError{Op: "deactivate unsourced", Err: err}
	}
	return n, nil
}

func (t *importTx) MaxLoadNumber(ctx context.Context, ownerID string) (int64, bool, error) {
	n, err := t.q.MaxLoadNumber(ctx, ownerID)
	if err != nil {
		return 0, false, &core.SystemError{Op: "max load number", Err: err}
	}
	return n.Int64, n.Valid, nil
}

// InsertLoad writes one record under a savepoint. Statement errors the
// server rejected are returned as-is for the caller to count; anything
// that leaves the transaction unusable is a *core.SystemError.
func (t *importTx) InsertLoad(ctx context.Context, rec core.LoadRecord) error {
	t.seq++
	savepoint := fmt.Sprintf("sp_%d", t.seq)

	if _, err := t.tx.Exec(ctx, "SAVEPOINT "+savepoint); err != nil {
		return &core.SystemError{Op: "create savepoint", Err: err}
	}

	err := t.q.InsertLoad(ctx, InsertParams(uuid.New(), rec))
	if err == nil {
		if _, err := t.tx.Exec(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
			return &core.SystemError{Op: "release savepoint", Err: err}
		}
		return nil
	}

	if !isStatementError(err) {
		return &core.SystemError{Op: "insert load", Err: err}
	}
	if _, rbErr := t.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
		return &core.SystemError{Op: "rollback savepoint", Err: errors.Join(err, rbErr)}
	}
	return err
}

func (t *importTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *importTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// isStatementError reports whether the server rejected one statement
// (constraint, type or value errors) while the session stays healthy.
func isStatementError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// Class 22 is data exception, class 23 integrity constraint violation.
	return strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23")
}
