// Package caching provides cache coordination helpers.
package caching

import "sync"

// RefreshLock ensures only one background refresh runs for a given key at a
// time. TryLock never blocks.
type RefreshLock struct {
	mu    sync.Mutex
	locks map[string]struct{}
}

func NewRefreshLock() *RefreshLock {
	return &RefreshLock{
		locks: make(map[string]struct{}),
	}
}

// TryLock acquires key and reports whether it was free.
func (l *RefreshLock) TryLock(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.locks[key]; held {
		return false
	}
	l.locks[key] = struct{}{}
	return true
}

// Unlock releases key.
func (l *RefreshLock) Unlock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.locks, key)
}
