package queryutil

import (
	"context"
	"sync"
)

// RateLimiter caps the number of concurrently-running operations. Excess
// callers queue and are resumed in strict arrival order, one per
// completed operation.
type RateLimiter struct {
	mu      sync.Mutex
	active  int
	max     int
	waiters []chan struct{}
}

// NewRateLimiter creates a limiter allowing maxConcurrent operations at
// once. Values below 1 fall back to 3.
func NewRateLimiter(maxConcurrent int) *RateLimiter {
	if maxConcurrent < 1 {
		maxConcurrent = 3
	}
	return &RateLimiter{max: maxConcurrent}
}

// Acquire blocks until a slot is free or ctx is done. A buffered channel
// per waiter keeps release from blocking and preserves FIFO order.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	if l.active < l.max {
		l.active++
		l.mu.Unlock()
		return nil
	}
	ready := make(chan struct{}, 1)
	l.waiters = append(l.waiters, ready)
	l.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		l.abandon(ready)
		return ctx.Err()
	}
}

// abandon removes a waiter that gave up. If its slot was already granted
// between the ctx firing and the lock, pass it on instead of leaking it.
func (l *RateLimiter) abandon(ready chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, w := range l.waiters {
		if w == ready {
			l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
			return
		}
	}
	select {
	case <-ready:
		l.releaseLocked()
	default:
	}
}

// Release frees a slot, resuming the oldest waiter if any.
func (l *RateLimiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releaseLocked()
}

func (l *RateLimiter) releaseLocked() {
	if len(l.waiters) > 0 {
		next := l.waiters[0]
		l.waiters = l.waiters[1:]
		next <- struct{}{}
		return
	}
	if l.active > 0 {
		l.active--
	}
}

// Do runs fn inside a slot. The slot is released whether fn succeeds or
// fails.
func (l *RateLimiter) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn(ctx)
}

// InFlight returns the number of currently-executing operations.
func (l *RateLimiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}
