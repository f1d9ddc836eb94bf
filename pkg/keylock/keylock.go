// Package keylock provides per-key mutual exclusion with bounded acquisition.
//
// The ingestion path uses it to serialize submissions for the same
// participant while leaving different participants fully concurrent.
package keylock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// entry is a one-slot semaphore plus a reference count covering the holder
// and all waiters. Entries are removed from the map once unreferenced, so
// the lock table stays proportional to in-flight keys.
type entry struct {
	sem  chan struct{}
	refs int
}

// KeyLock provides mutual exclusion scoped to string keys.
type KeyLock struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New creates an empty KeyLock.
func New() *KeyLock {
	return &KeyLock{entries: make(map[string]*entry)}
}

func (k *KeyLock) retain(key string) *entry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	return e
}

func (k *KeyLock) unref(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(k.entries, key)
	}
}

// Acquire takes the lock for key, waiting at most timeout when timeout > 0.
// Returns ErrAcquireTimeout when the wait deadline passes, or the context
// error when ctx is cancelled first.
func (k *KeyLock) Acquire(ctx context.Context, key string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	e := k.retain(key)
	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		k.unref(key)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrAcquireTimeout
		}
		return ctx.Err()
	}
}

// Release drops the lock for key. Calling Release for a key that is not
// held is a no-op.
func (k *KeyLock) Release(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	k.mu.Unlock()
	if !ok {
		return
	}
	select {
	case <-e.sem:
	default:
		return
	}
	k.unref(key)
}

// WithLock runs fn while holding the lock for key.
func (k *KeyLock) WithLock(ctx context.Context, key string, timeout time.Duration, fn func() error) error {
	if err := k.Acquire(ctx, key, timeout); err != nil {
		return err
	}
	defer k.Release(key)
	return fn()
}

// Size returns the number of keys currently tracked. Intended for tests
// and diagnostics.
func (k *KeyLock) Size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
