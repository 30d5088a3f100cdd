package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an idle import session is kept.
var DefaultSessionTTL = time.Hour

// DefaultCommitTimeout bounds a single commit transaction.
var DefaultCommitTimeout = 5 * time.Minute

// ServiceConfig tunes the import service. Zero values take defaults.
type ServiceConfig struct {
	MaxFileSize          int64
	SessionTTL           time.Duration
	CommitTimeout        time.Duration
	MaxConcurrentCommits int
	CommitWait           time.Duration
	Orchestrator         OrchestratorConfig
	Clock                func() time.Time
}

// Service drives import sessions from upload to commit. Sessions live in
// memory and belong to the owner that started them.
type Service struct {
	store   Store
	orch    *Orchestrator
	limiter *CommitLimiter
	specs   []FieldSpec

	maxFileSize   int64
	sessionTTL    time.Duration
	commitTimeout time.Duration
	now           func() time.Time

	mu       sync.RWMutex
	sessions map[string]Session
}

// NewService creates a Service over store.
func NewService(store Store, cfg ServiceConfig) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.CommitTimeout <= 0 {
		cfg.CommitTimeout = DefaultCommitTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Orchestrator.Now == nil {
		cfg.Orchestrator.Now = cfg.Clock
	}

	return &Service{
		store:         store,
		orch:          NewOrchestrator(store, cfg.Orchestrator),
		limiter:       NewCommitLimiter(cfg.MaxConcurrentCommits, cfg.CommitWait),
		specs:         Fields(),
		maxFileSize:   cfg.MaxFileSize,
		sessionTTL:    cfg.SessionTTL,
		commitTimeout: cfg.CommitTimeout,
		now:           cfg.Clock,
		sessions:      make(map[string]Session),
	}
}

// StartImport reads and parses an upload and returns a session in the
// map stage. Nothing is stored when parsing fails.
func (s *Service) StartImport(ctx context.Context, ownerID, fileName string, r io.Reader, tmpl Template) (Session, error) {
	if ownerID == "" {
		return Session{}, ErrMissingOwner
	}
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	sheet, err := ReadSheet(fileName, r, s.maxFileSize)
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	sess, err := NewSession(uuid.NewString(), ownerID, now).Load(fileName, sheet, tmpl, now)
	if err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()
	getMetrics().activeSessions.Set(float64(n))

	slog.Info("import session started",
		"session_id", sess.ID,
		"owner_id", ownerID,
		"file", fileName,
		"source", sess.Parsed.Source,
		"header_row", sess.Parsed.HeaderRow,
		"rows", len(sess.Parsed.Table.Rows),
	)
	return sess, nil
}

// GetSession returns ownerID's session. Foreign ids are reported as not found.
func (s *Service) GetSession(ownerID, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(ownerID, id)
}

func (s *Service) lookup(ownerID, id string) (Session, error) {
	sess, ok := s.sessions[id]
	if !ok || sess.OwnerID != ownerID {
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

// update applies fn to a session under the write lock and stores the result
// only when fn succeeds.
func (s *Service) update(ownerID, id string, fn func(Session) (Session, error)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(ownerID, id)
	if err != nil {
		return Session{}, err
	}
	next, err := fn(sess)
	if err != nil {
		return sess, err
	}
	s.sessions[id] = next
	return next, nil
}

// UpdateMapping applies column assignments. Returns the columns whose
// target was taken over by another column.
func (s *Service) UpdateMapping(ownerID, id string, assignments map[string]string) (Session, []string, error) {
	var displaced []string
	sess, err := s.update(ownerID, id, func(sess Session) (Session, error) {
		next, d, err := sess.Remap(assignments, s.now())
		displaced = d
		return next, err
	})
	return sess, displaced, err
}

// Preview validates the mapping and normalizes every row.
func (s *Service) Preview(ownerID, id string) (Session, error) {
	return s.update(ownerID, id, func(sess Session) (Session, error) {
		return sess.BuildPreview(s.specs, s.now())
	})
}

// Commit writes a previewed session. The session moves to committing
// before the store is touched, so a second call fails with
// ErrInvalidTransition. On a system failure it returns to preview.
func (s *Service) Commit(ctx context.Context, ownerID, id string) (Session, error) {
	sess, err := s.GetSession(ownerID, id)
	if err != nil {
		return Session{}, err
	}
	if sess.Stage != StagePreview {
		return sess, fmt.Errorf("%w: cannot commit from %s", ErrInvalidTransition, sess.Stage)
	}

	release, err := s.limiter.Acquire(ctx, ownerID)
	if err != nil {
		return sess, err
	}
	defer release()

	sess, err = s.update(ownerID, id, func(sess Session) (Session, error) {
		return sess.BeginCommit(s.now())
	})
	if err != nil {
		return sess, err
	}

	commitCtx, cancel := context.WithTimeout(ctx, s.commitTimeout)
	defer cancel()

	batch, outcome, commitErr := s.orch.Commit(commitCtx, ownerID, sess.Parsed.Source, sess.Preview.Results)
	if commitErr != nil {
		sess, err = s.update(ownerID, id, func(sess Session) (Session, error) {
			return sess.AbortCommit(s.now())
		})
		if err != nil && !errors.Is(err, ErrSessionNotFound) {
			slog.Error("failed to reset session after aborted commit", "session_id", id, "error", err)
		}
		return sess, commitErr
	}

	return s.update(ownerID, id, func(sess Session) (Session, error) {
		return sess.Complete(batch, outcome, s.now())
	})
}

// Abandon drops a session. Allowed in any stage except committing.
func (s *Service) Abandon(ownerID, id string) error {
	s.mu.Lock()
	sess, err := s.lookup(ownerID, id)
	if err == nil && sess.Stage == StageCommitting {
		err = fmt.Errorf("%w: commit in progress", ErrInvalidTransition)
	}
	if err == nil {
		delete(s.sessions, id)
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	getMetrics().activeSessions.Set(float64(n))
	slog.Debug("import session abandoned", "session_id", id, "stage", sess.Stage)
	return nil
}

// SessionCount returns the number of sessions held.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ListBatches returns ownerID's import history.
func (s *Service) ListBatches(ctx context.Context, ownerID string) ([]BatchSummary, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	batches, err := s.store.ListBatches(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Fields returns the canonical schema the service validates against.
func (s *Service) Fields() []FieldSpec {
	return s.specs
}

// CommitLimiterStatus reports commit slot usage.
func (s *Service) CommitLimiterStatus() CommitLimiterStatus {
	return s.limiter.Status()
}

// WaitForCommits blocks until in-flight commits finish or ctx is done.
// Used during graceful shutdown.
func (s *Service) WaitForCommits(ctx context.Context) error {
	return s.limiter.Drain(ctx)
}
