package queryutil

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// TestLimiterBound verifies that with N queued operations gated on an
// external signal, no more than maxConcurrent ever run at once.
func TestLimiterBound(t *testing.T) {
	const n, maxConcurrent = 10, 3
	limiter := NewRateLimiter(maxConcurrent)

	var mu sync.Mutex
	running, peak := 0, 0
	release := make(chan struct{})

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = limiter.Do(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				running++
				if running > peak {
					peak = running
				}
				mu.Unlock()

				<-release

				mu.Lock()
				running--
				mu.Unlock()
				return nil
			})
		}()
	}

	// Let the first wave start, then unblock everyone.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if peak > maxConcurrent {
		t.Errorf("peak concurrency = %d, want <= %d", peak, maxConcurrent)
	}
	if peak != maxConcurrent {
		t.Errorf("peak concurrency = %d, want %d (limiter should fill all slots)", peak, maxConcurrent)
	}
}

// TestLimiterFIFO verifies queued waiters resume in arrival order.
func TestLimiterFIFO(t *testing.T) {
	limiter := NewRateLimiter(1)

	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var order []int
	started := make(chan struct{}, 3)

	var wg sync.WaitGroup
	for i := 1; i <= 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			_ = limiter.Do(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}()
		<-started
		// Give the goroutine time to enqueue before starting the next,
		// so arrival order is deterministic.
		time.Sleep(20 * time.Millisecond)
	}

	limiter.Release()
	wg.Wait()

	for i, got := range order {
		if got != i+1 {
			t.Fatalf("completion order = %v, want [1 2 3]", order)
		}
	}
}

// TestLimiterReleasesOnError verifies a failing operation still frees its
// slot for the next waiter.
func TestLimiterReleasesOnError(t *testing.T) {
	limiter := NewRateLimiter(1)

	err := limiter.Do(context.Background(), func(ctx context.Context) error {
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}

	done := make(chan struct{})
	go func() {
		_ = limiter.Do(context.Background(), func(ctx context.Context) error {
			close(done)
			return nil
		})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("slot was not released after a failed operation")
	}
}

// TestLimiterAcquireCancelled verifies a waiter can give up via context
// without wedging the queue.
func TestLimiterAcquireCancelled(t *testing.T) {
	limiter := NewRateLimiter(1)
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	// The abandoned waiter must not swallow the slot.
	limiter.Release()
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("slot lost after abandoned waiter: %v", err)
	}
}
