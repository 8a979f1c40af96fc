package moderation

import (
	"context"
	"sync"
)

// recordLocks hands out one mutex per record id. Entries are reference counted and
// removed when the last holder releases, so the map only holds ids in flight.
type recordLocks struct {
	mu    sync.Mutex
	locks map[string]*recordLock
}

type recordLock struct {
	ch   chan struct{}
	refs int
}

func newRecordLocks() *recordLocks {
	return &recordLocks{locks: make(map[string]*recordLock)}
}

// acquire blocks until the record is free or ctx is done.
func (l *recordLocks) acquire(ctx context.Context, recordID string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[recordID]
	if !ok {
		lock = &recordLock{ch: make(chan struct{}, 1)}
		l.locks[recordID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(recordID, lock, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(recordID, lock, true) })
	}, nil
}

func (l *recordLocks) release(recordID string, lock *recordLock, held bool) {
	if held {
		<-lock.ch
	}
	l.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, recordID)
	}
	l.mu.Unlock()
}

func (l *recordLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
