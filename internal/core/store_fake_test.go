package core

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// fakeRecord is a stored load as the fake sees it.
type fakeRecord struct {
	OwnerID string
	Source  Source // "" for legacy rows
	BatchID string
	Active  bool
	Fields  NormalizedRecord
}

// fakeStore keeps committed records in memory. A transaction works on a
// copy that replaces the committed slice on Commit.
type fakeStore struct {
	mu      sync.Mutex
	records []fakeRecord

	beginErr  error
	pingErr   error
	insertErr func(rec LoadRecord) error // per-row failure injection
	commitErr error

	commits   int
	rollbacks int
}

func (s *fakeStore) seed(recs ...fakeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, recs...)
}

func (s *fakeStore) snapshot() []fakeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]fakeRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *fakeStore) BeginImport(ctx context.Context) (ImportTx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := make([]fakeRecord, len(s.records))
	copy(work, s.records)
	return &fakeTx{store: s, work: work}, nil
}

func (s *fakeStore) ListBatches(ctx context.Context, ownerID string) ([]BatchSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]*BatchSummary)
	var order []string
	for _, r := range s.records {
		if r.OwnerID != ownerID || r.BatchID == "" {
			continue
		}
		b, ok := byID[r.BatchID]
		if !ok {
			b = &BatchSummary{BatchID: r.BatchID, Source: r.Source}
			byID[r.BatchID] = b
			order = append(order, r.BatchID)
		}
		if r.Active {
			b.ActiveCount++
		} else {
			b.InactiveCount++
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(order)))
	out := make([]BatchSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

func (s *fakeStore) Ping(ctx context.Context) error { return s.pingErr }

type fakeTx struct {
	store  *fakeStore
	work   []fakeRecord
	locked string
	done   bool
}

func (tx *fakeTx) LockOwner(ctx context.Context, ownerID string) error {
	tx.locked = ownerID
	return nil
}

func (tx *fakeTx) DeactivateSource(ctx context.Context, ownerID string, source Source) (int64, error) {
	var n int64
	for i := range tx.work {
		r := &tx.work[i]
		if r.OwnerID == ownerID && r.Source == source && r.Active {
			r.Active = false
			n++
		}
	}
	return n, nil
}

func (tx *fakeTx) DeactivateUnsourced(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	for i := range tx.work {
		r := &tx.work[i]
		if r.OwnerID == ownerID && r.Source == "" && r.Active {
			r.Active = false
			n++
		}
	}
	return n, nil
}

func (tx *fakeTx) MaxLoadNumber(ctx context.Context, ownerID string) (int64, bool, error) {
	var (
		highest int64
		found   bool
	)
	for _, r := range tx.work {
		if r.OwnerID != ownerID {
			continue
		}
		if n, ok := numericLoadNumber(r.Fields.String(KeyLoadNumber)); ok && (!found || n > highest) {
			highest, found = n, true
		}
	}
	return highest, found, nil
}

func (tx *fakeTx) InsertLoad(ctx context.Context, rec LoadRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f := tx.store.insertErr; f != nil {
		if err := f(rec); err != nil {
			return err
		}
	}
	tx.work = append(tx.work, fakeRecord{
		OwnerID: rec.Batch.OwnerID,
		Source:  rec.Batch.Source,
		BatchID: rec.Batch.BatchID,
		Active:  true,
		Fields:  rec.Fields,
	})
	return nil
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	if tx.done {
		return errors.New("transaction already closed")
	}
	if err := tx.store.commitErr; err != nil {
		return err
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	tx.store.records = tx.work
	tx.store.commits++
	tx.done = true
	return nil
}

func (tx *fakeTx) Rollback(ctx context.Context) error {
	if tx.done {
		return nil
	}
	tx.store.mu.Lock()
	tx.store.rollbacks++
	tx.store.mu.Unlock()
	tx.done = true
	return nil
}
