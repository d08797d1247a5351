// Package userlock serializes mutations of one user's portfolio while letting reads overlap.
package userlock

import (
	"sync"

	"github.com/google/uuid"
)

type entry struct {
	mu   sync.RWMutex
	refs int
}

// Locker holds one entry per user with a lock held or awaited; idle entries are dropped.
type Locker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*entry
}

func New() *Locker {
	return &Locker{locks: make(map[uuid.UUID]*entry)}
}

func (l *Locker) acquire(userID uuid.UUID) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[userID]
	if !ok {
		e = &entry{}
		l.locks[userID] = e
	}
	e.refs++
	return e
}

func (l *Locker) release(userID uuid.UUID, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, userID)
	}
}

// Lock takes the user's exclusive scope; call the returned func to release it.
func (l *Locker) Lock(userID uuid.UUID) func() {
	e := l.acquire(userID)
	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.release(userID, e)
	}
}

// RLock takes the user's shared scope; call the returned func to release it.
func (l *Locker) RLock(userID uuid.UUID) func() {
	e := l.acquire(userID)
	e.mu.RLock()
	return func() {
		e.mu.RUnlock()
		l.release(userID, e)
	}
}
