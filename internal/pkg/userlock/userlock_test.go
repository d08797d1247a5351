package userlock

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func TestLock_SerializesSameUser(t *testing.T) {
	l := New()
	user := uuid.New()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(user)
			defer unlock()
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestLock_IndependentUsers(t *testing.T) {
	l := New()
	unlockA := l.Lock(uuid.New())
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := l.Lock(uuid.New())
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for another user blocked")
	}
}

func TestRLock_ReadersShare(t *testing.T) {
	l := New()
	user := uuid.New()
	unlock1 := l.RLock(user)
	defer unlock1()

	done := make(chan struct{})
	go func() {
		unlock := l.RLock(user)
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second reader blocked")
	}
}

func TestLocker_DropsIdleUsers(t *testing.T) {
	l := New()
	for i := 0; i < 100; i++ {
		l.Lock(uuid.New())()
		l.RLock(uuid.New())()
	}
	assert.Zero(t, l.size())
}

func TestLocker_KeepsEntryWhileWaiting(t *testing.T) {
	l := New()
	user := uuid.New()
	unlock := l.Lock(user)

	acquired := make(chan func())
	go func() { acquired <- l.Lock(user) }()
	require.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.locks[user].refs == 2
	}, time.Second, time.Millisecond)

	unlock()
	assert.Equal(t, 1, l.size())
	(<-acquired)()
	assert.Zero(t, l.size())
}
