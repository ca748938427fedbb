package queryutil

import (
	"context"
	"sync"
)

// BatchOptions controls ExecuteBatch.
type BatchOptions struct {
	MaxConcurrent int          // limiter size for this batch (default 3)
	Retry         RetryOptions // per-item retry envelope
}

// ExecuteBatch applies fn to every item, each call wrapped in WithRetry and
// admitted through a fresh rate limiter. Results are aligned by input index
// regardless of completion order. If any item permanently fails the whole
// batch fails; in-flight items still run to completion.
func ExecuteBatch[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error), opts BatchOptions) ([]R, error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))
	limiter := NewRateLimiter(opts.MaxConcurrent)

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = limiter.Do(ctx, func(ctx context.Context) error {
				val, err := WithRetry(ctx, func(ctx context.Context) (R, error) {
					return fn(ctx, item)
				}, opts.Retry)
				if err != nil {
					return err
				}
				results[i] = val
				return nil
			})
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
