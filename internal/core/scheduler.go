package core

// scheduler.go evicts import sessions nobody has touched for SessionTTL.
//
// The sweeper runs until its context is cancelled. Eviction is side-effect
// free: a session never reaches the store before commit, and sessions in
// the committing stage are skipped.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often the sweeper looks for idle sessions.
const DefaultSweepInterval = 5 * time.Minute

// StartSessionSweeper evicts idle sessions every interval until ctx ends.
// Meant to run in its own goroutine.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("session sweeper started", "interval", interval, "ttl", s.sessionTTL)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if n := s.SweepSessions(); n > 0 {
				slog.Info("evicted idle import sessions", "count", n)
			}
		}
	}
}

// SweepSessions removes sessions idle longer than the TTL and returns how
// many were removed.
func (s *Service) SweepSessions() int {
	cutoff := s.now().Add(-s.sessionTTL)

	s.mu.Lock()
	evicted := 0
	for id, sess := range s.sessions {
		if sess.Stage == StageCommitting || !sess.UpdatedAt.Before(cutoff) {
			continue
		}
		delete(s.sessions, id)
		evicted++
	}
	n := len(s.sessions)
	s.mu.Unlock()

	getMetrics().activeSessions.Set(float64(n))
	return evicted
}
