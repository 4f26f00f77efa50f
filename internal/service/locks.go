package service

import (
	"context"
	"sync"
)

// lockTable hands out one exclusive section per card uid, so adjustments for
// the same card serialize while different cards proceed in parallel. Locks
// are chan-based semaphores rather than sync.Mutex so a queued caller can
// give up when its context expires; once acquired, the holder always runs to
// completion.
//
// Entries are never evicted: one buffered channel per card ever seen is a
// few dozen bytes, bounded by the size of the physical fleet.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{
		locks: make(map[string]chan struct{}),
	}
}

// acquire blocks until the key's section is free or ctx is done. A context
// that is already done never acquires, even when the section is free. On
// success the returned release func must be called exactly once.
func (t *lockTable) acquire(ctx context.Context, key string) (release func(), err error) {
	t.mu.Lock()
	ch, ok := t.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		t.locks[key] = ch
	}
	t.mu.Unlock()

	// A two-way select picks randomly when both cases are ready, so check
	// expiry first.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
