// Package lifecycle holds process lifecycle state shared across handlers.
package lifecycle

import (
	"context"
	"sync"
	"sync/atomic"
)

// Lifecycle tracks draining state and the set of live interview sessions
// still running, so shutdown can stop accepting upgrades and then wait for
// in-flight interviews to finish. All methods are nil-safe.
type Lifecycle struct {
	draining atomic.Bool

	mu       sync.Mutex
	active   int
	finished chan struct{}
}

func (l *Lifecycle) SetDraining(draining bool) {
	if l == nil {
		return
	}
	l.draining.Store(draining)
}

func (l *Lifecycle) IsDraining() bool {
	if l == nil {
		return false
	}
	return l.draining.Load()
}

// SessionStarted registers one running live session.
func (l *Lifecycle) SessionStarted() {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.active++
	l.mu.Unlock()
}

// SessionEnded unregisters one live session, waking waiters when the last
// one finishes.
func (l *Lifecycle) SessionEnded() {
	if l == nil {
		return
	}
	l.mu.Lock()
	if l.active > 0 {
		l.active--
	}
	if l.active == 0 && l.finished != nil {
		close(l.finished)
		l.finished = nil
	}
	l.mu.Unlock()
}

// ActiveSessions returns the number of live sessions currently running.
func (l *Lifecycle) ActiveSessions() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// WaitSessions blocks until every live session has ended or the context is
// done. It reports whether the sessions drained in time.
func (l *Lifecycle) WaitSessions(ctx context.Context) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	if l.active == 0 {
		l.mu.Unlock()
		return true
	}
	if l.finished == nil {
		l.finished = make(chan struct{})
	}
	done := l.finished
	l.mu.Unlock()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
