package core

// commit_limiter.go bounds how many import commits run at once.
//
// Each commit holds a store transaction and an owner-level advisory lock
// for its whole duration, so unbounded parallel commits would starve the
// connection pool. Callers wait up to maxWait for a slot before failing
// with ErrTooManyCommits. Drain blocks shutdown until in-flight commits end.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyCommits is returned when all commit slots stay occupied for
// the whole wait window. Clients should retry after a short delay.
var ErrTooManyCommits = errors.New("too many concurrent imports, please try again later")

// DefaultMaxConcurrentCommits is the default limit for parallel commits.
const DefaultMaxConcurrentCommits = 4

// DefaultCommitWait is how long to wait for a slot before rejecting.
const DefaultCommitWait = 30 * time.Second

// CommitLimiter is a counting semaphore over import commits.
type CommitLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu      sync.Mutex
	byOwner map[string]int
	idle    *sync.Cond
}

// NewCommitLimiter allows at most maxConcurrent commits at once.
func NewCommitLimiter(maxConcurrent int, maxWait time.Duration) *CommitLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentCommits
	}
	if maxWait <= 0 {
		maxWait = DefaultCommitWait
	}

	l := &CommitLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		byOwner: make(map[string]int),
	}
	l.idle = sync.NewCond(&l.mu)
	return l
}

// Acquire takes a slot for ownerID. On success the returned func must be
// called exactly once to give the slot back.
func (l *CommitLimiter) Acquire(ctx context.Context, ownerID string) (release func(), err error) {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
	case <-timer.C:
		return nil, ErrTooManyCommits
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	l.mu.Lock()
	l.byOwner[ownerID]++
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			if l.byOwner[ownerID]--; l.byOwner[ownerID] <= 0 {
				delete(l.byOwner, ownerID)
			}
			<-l.slots
			if len(l.slots) == 0 {
				l.idle.Broadcast()
			}
			l.mu.Unlock()
		})
	}, nil
}

// Active returns the number of commits in flight.
func (l *CommitLimiter) Active() int {
	return len(l.slots)
}

// Drain blocks until no commit is in flight or ctx is done.
func (l *CommitLimiter) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.mu.Lock()
		for len(l.slots) > 0 && ctx.Err() == nil {
			l.idle.Wait()
		}
		l.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return ctx.Err()
	case <-ctx.Done():
		// wake the waiter so it can observe ctx
		l.mu.Lock()
		l.idle.Broadcast()
		l.mu.Unlock()
		<-done
		return ctx.Err()
	}
}

// CommitLimiterStatus is a snapshot for monitoring endpoints.
type CommitLimiterStatus struct {
	Active        int            `json:"active"`
	Available     int            `json:"available"`
	MaxConcurrent int            `json:"max_concurrent"`
	ByOwner       map[string]int `json:"by_owner,omitempty"`
}

// Status returns the current limiter state.
func (l *CommitLimiter) Status() CommitLimiterStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	owners := make(map[string]int, len(l.byOwner))
	for k, v := range l.byOwner {
		owners[k] = v
	}
	active := len(l.slots)
	return CommitLimiterStatus{
		Active:        active,
		Available:     cap(l.slots) - active,
		MaxConcurrent: cap(l.slots),
		ByOwner:       owners,
	}
}
