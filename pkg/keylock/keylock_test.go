package keylock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestAcquireRelease(t *testing.T) {
	ctx := context.Background()
	kl := New()

	if err := kl.Acquire(ctx, "p1", 0); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if err := kl.Acquire(ctx, "p1", 50*time.Millisecond); !errors.Is(err, ErrAcquireTimeout) {
		t.Fatalf("second acquire: got %v, want ErrAcquireTimeout", err)
	}

	// A different key is not blocked by p1's holder.
	if err := kl.Acquire(ctx, "p2", 50*time.Millisecond); err != nil {
		t.Fatalf("acquire for independent key failed: %v", err)
	}
	kl.Release("p2")

	kl.Release("p1")
	if err := kl.Acquire(ctx, "p1", 50*time.Millisecond); err != nil {
		t.Fatalf("reacquire after release failed: %v", err)
	}
	kl.Release("p1")

	if n := kl.Size(); n != 0 {
		t.Errorf("lock table not reclaimed, %d entries remain", n)
	}
}

func TestReleaseWithoutAcquire(t *testing.T) {
	kl := New()
	kl.Release("ghost") // must not panic
}

func TestContextCancellation(t *testing.T) {
	kl := New()
	ctx := context.Background()

	if err := kl.Acquire(ctx, "p1", 0); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	cancelCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- kl.Acquire(cancelCtx, "p1", time.Second)
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled acquire did not return")
	}
	kl.Release("p1")
}

func TestMutualExclusionCounter(t *testing.T) {
	const (
		goroutines = 32
		increments = 100
	)
	kl := New()
	ctx := context.Background()

	var counter int // protected only by the key lock
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				if err := kl.WithLock(ctx, "shared", time.Second, func() error {
					counter++
					return nil
				}); err != nil {
					t.Errorf("WithLock failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if counter != goroutines*increments {
		t.Fatalf("counter = %d, want %d (lost updates)", counter, goroutines*increments)
	}
	if n := kl.Size(); n != 0 {
		t.Errorf("lock table not reclaimed, %d entries remain", n)
	}
}
