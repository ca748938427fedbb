// Package queryutil wraps database operations in a bounded-time,
// bounded-retry envelope and caps how many run at once.
//
// Postgres behind a flaky home network produces transient failures that
// resolve on retry; auth and schema errors do not. The helpers here
// separate the two so callers spend their retry budget only where it helps.
package queryutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// RetryOptions controls WithRetry. Zero values fall back to defaults.
type RetryOptions struct {
	MaxRetries   int           // extra attempts after the first (default 3)
	Timeout      time.Duration // per-attempt bound (default 5s)
	InitialDelay time.Duration // first backoff delay (default 1s)
	MaxDelay     time.Duration // backoff cap (default 10s)
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.Timeout == 0 {
		o.Timeout = 5 * time.Second
	}
	if o.InitialDelay == 0 {
		o.InitialDelay = time.Second
	}
	if o.MaxDelay == 0 {
		o.MaxDelay = 10 * time.Second
	}
	return o
}

// ErrTimeout is returned when a single attempt exceeds its per-attempt bound.
var ErrTimeout = errors.New("operation timed out")

// nonRetryableFragments are matched case-insensitively against error text.
// Auth and not-found failures will not get better on retry.
var nonRetryableFragments = []string{
	"jwt",
	"unauthorized",
	"forbidden",
	"not found",
}

// nonRetryableSQLStates are Postgres error codes for auth, permission and
// empty-result conditions.
var nonRetryableSQLStates = map[string]bool{
	"28000": true, // invalid_authorization_specification
	"28P01": true, // invalid_password
	"42501": true, // insufficient_privilege
	"P0002": true, // no_data_found
}

// IsNonRetryable reports whether err should be propagated immediately
// instead of consuming retry budget.
func IsNonRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && nonRetryableSQLStates[pgErr.Code] {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range nonRetryableFragments {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

// IsUndefinedColumn reports whether err is Postgres undefined_column
// (SQLSTATE 42703), the signature of querying a column the schema does not
// have yet. Callers use this to switch query shape rather than retry.
func IsUndefinedColumn(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42703"
}

// WithTimeout runs op and bounds it to d. The operation receives a context
// that is cancelled at the deadline, but an attempt that ignores its
// context simply keeps running in the background; the caller gets
// ErrTimeout either way.
func WithTimeout[T any](ctx context.Context, d time.Duration, op func(context.Context) (T, error)) (T, error) {
	opCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		val, err := op(opCtx)
		done <- result{val, err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-opCtx.Done():
		var zero T
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, fmt.Errorf("%w after %s", ErrTimeout, d)
	}
}

// WithRetry runs op up to MaxRetries+1 times, each attempt bounded by
// Timeout, sleeping with exponential backoff between attempts. Timeouts
// count as retryable failures. A non-retryable error is returned on first
// occurrence; exhausting attempts returns the last error seen.
func WithRetry[T any](ctx context.Context, op func(context.Context) (T, error), opts RetryOptions) (T, error) {
	opts = opts.withDefaults()

	var zero T
	var lastErr error
	delay := opts.InitialDelay

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
			delay *= 2
			if delay > opts.MaxDelay {
				delay = opts.MaxDelay
			}
		}

		val, err := WithTimeout(ctx, opts.Timeout, op)
		if err == nil {
			return val, nil
		}
		if errors.Is(err, context.Canceled) || IsNonRetryable(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, fmt.Errorf("after %d attempts: %w", opts.MaxRetries+1, lastErr)
}
