package core

// commit.go writes a previewed batch to the store.
//
// A commit runs inside one store transaction:
//  1. Lock the owner so concurrent commits cannot read the same counter seed.
//  2. Supersede the owner's active records of the same source, plus legacy
//     records that predate source tagging. Generic imports supersede nothing.
//  3. Seed the load-number counter from the owner's recent records.
//  4. Insert each accepted row under its own savepoint (store-side).
//
// Row failures are counted and the loop continues. A *SystemError rolls the
// whole transaction back and no outcome is produced.

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/loadimport/internal/logging"
)

// Counter defaults.
const DefaultLoadNumberSeed = 1001

// OrchestratorConfig tunes the commit step. Zero values take defaults.
type OrchestratorConfig struct {
	Seed int64 // First load number when the owner has none
	Now  func() time.Time
}

// Orchestrator commits normalized rows as one ImportBatch.
type Orchestrator struct {
	store Store
	seed  int64
	now   func() time.Time
}

// NewOrchestrator creates an orchestrator over store.
func NewOrchestrator(store Store, cfg OrchestratorConfig) *Orchestrator {
	if cfg.Seed <= 0 {
		cfg.Seed = DefaultLoadNumberSeed
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Orchestrator{store: store, seed: cfg.Seed, now: cfg.Now}
}

// NextLoadNumber returns one past highest, or seed when the owner has no
// numeric load number yet.
func NextLoadNumber(highest int64, found bool, seed int64) int64 {
	if !found {
		return seed
	}
	return highest + 1
}

// numericLoadNumber parses s when it is all ASCII digits.
func numericLoadNumber(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Commit writes results as a new batch for ownerID. Rejected results are
// counted as failed without touching the store.
func (o *Orchestrator) Commit(ctx context.Context, ownerID string, source Source, results []RowResult) (ImportBatch, ImportOutcome, error) {
	if strings.TrimSpace(ownerID) == "" {
		return ImportBatch{}, ImportOutcome{}, ErrMissingOwner
	}
	if !source.Valid() {
		return ImportBatch{}, ImportOutcome{}, fmt.Errorf("unknown import source: %q", source)
	}

	start := o.now()
	batch := NewImportBatch(source, ownerID, start)
	logger := logging.WithFields(ctx, "batch_id", batch.BatchID, "owner_id", ownerID, "source", source)
	m := getMetrics()

	outcome, err := o.commitTx(ctx, batch, results)
	m.commitDuration.WithLabelValues(string(source)).Observe(o.now().Sub(start).Seconds())
	if err != nil {
		m.batchesTotal.WithLabelValues(string(source), "aborted").Inc()
		logger.Error("import commit aborted", "error", err)
		return ImportBatch{}, ImportOutcome{}, err
	}

	m.batchesTotal.WithLabelValues(string(source), "committed").Inc()
	m.rowsTotal.WithLabelValues(string(source), "success").Add(float64(outcome.SuccessCount))
	m.rowsTotal.WithLabelValues(string(source), "failed").Add(float64(outcome.FailedCount))
	m.supersededTotal.WithLabelValues(string(source)).Add(float64(outcome.Superseded))

	logger.Info("import committed",
		"success", outcome.SuccessCount,
		"failed", outcome.FailedCount,
		"superseded", outcome.Superseded,
	)
	return batch, outcome, nil
}

func (o *Orchestrator) commitTx(ctx context.Context, batch ImportBatch, results []RowResult) (ImportOutcome, error) {
	var outcome ImportOutcome

	tx, err := o.store.BeginImport(ctx)
	if err != nil {
		return outcome, asSystemError("begin", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err := tx.LockOwner(ctx, batch.OwnerID); err != nil {
		return outcome, asSystemError("lock owner", err)
	}

	if batch.Source != SourceGeneric {
		n, err := tx.DeactivateSource(ctx, batch.OwnerID, batch.Source)
		if err != nil {
			return outcome, asSystemError("supersede", err)
		}
		legacy, err := tx.DeactivateUnsourced(ctx, batch.OwnerID)
		if err != nil {
			return outcome, asSystemError("supersede legacy", err)
		}
		outcome.Superseded = n + legacy
	}

	highest, found, err := tx.MaxLoadNumber(ctx, batch.OwnerID)
	if err != nil {
		return outcome, asSystemError("seed counter", err)
	}
	next := NextLoadNumber(highest, found, o.seed)

	for _, r := range results {
		if !r.OK() {
			outcome.fail(r.Line, r.Err.Code, r.Err.Reason)
			continue
		}

		fields := make(NormalizedRecord, len(r.Record)+1)
		for k, v := range r.Record {
			fields[k] = v
		}
		if id := strings.TrimSpace(fields.String(KeyLoadNumber)); id == "" {
			fields[KeyLoadNumber] = strconv.FormatInt(next, 10)
			next++
		} else if n, ok := numericLoadNumber(id); ok && n >= next {
			next = n + 1
		}

		if err := tx.InsertLoad(ctx, LoadRecord{Batch: batch, Fields: fields}); err != nil {
			if IsSystemError(err) {
				return ImportOutcome{}, err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ImportOutcome{}, asSystemError("insert", ctxErr)
			}
			outcome.fail(r.Line, CodeRowWriteFailed, MapError(err).Message)
			continue
		}
		outcome.SuccessCount++
	}

	if err := tx.Commit(ctx); err != nil {
		return ImportOutcome{}, asSystemError("commit", err)
	}
	committed = true
	return outcome, nil
}

func (o *ImportOutcome) fail(line int, code, reason string) {
	o.FailedCount++
	o.FailedRows = append(o.FailedRows, FailedRow{LineNumber: line, Code: code, Reason: reason})
}

// asSystemError wraps err unless it already carries a *SystemError.
func asSystemError(op string, err error) error {
	var se *SystemError
	if errors.As(err, &se) {
		return err
	}
	return &SystemError{Op: op, Err: err}
}
