package queryutil

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// fastRetry keeps test runtime down while exercising the full retry path.
var fastRetry = RetryOptions{
	MaxRetries:   2,
	Timeout:      time.Second,
	InitialDelay: 5 * time.Millisecond,
	MaxDelay:     20 * time.Millisecond,
}

// TestRetryCeiling verifies that an always-failing retryable operation is
// attempted exactly MaxRetries+1 times and the last error surfaces.
func TestRetryCeiling(t *testing.T) {
	attempts := 0
	wantErr := errors.New("connection reset")

	_, err := WithRetry(context.Background(), func(ctx context.Context) (int, error) {
		attempts++
		return 0, wantErr
	}, fastRetry)

	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want wrapped %v", err, wantErr)
	}
}

// TestRetrySucceedsMidway verifies that a transient failure followed by
// success returns the value without exhausting the budget.
func TestRetrySucceedsMidway(t *testing.T) {
	attempts := 0
	val, err := WithRetry(context.Background(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("temporary")
		}
		return "ok", nil
	}, fastRetry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "ok" {
		t.Errorf("val = %q, want %q", val, "ok")
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

// TestNonRetryableShortCircuit verifies that auth-flavored errors are
// attempted exactly once.
func TestNonRetryableShortCircuit(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unauthorized message", errors.New("request unauthorized")},
		{"jwt message", errors.New("JWT expired")},
		{"forbidden message", errors.New("access Forbidden")},
		{"not found message", errors.New("row not found")},
		{"sqlstate insufficient_privilege", &pgconn.PgError{Code: "42501", Message: "permission denied"}},
		{"sqlstate invalid_password", &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			_, err := WithRetry(context.Background(), func(ctx context.Context) (int, error) {
				attempts++
				return 0, tt.err
			}, fastRetry)
			if attempts != 1 {
				t.Errorf("attempts = %d, want 1", attempts)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("err = %v, want %v", err, tt.err)
			}
		})
	}
}

// TestBackoffGrowth verifies inter-attempt delays never shrink: each gap
// must be at least as long as the previous one, doubling up to MaxDelay.
func TestBackoffGrowth(t *testing.T) {
	var stamps []time.Time
	_, _ = WithRetry(context.Background(), func(ctx context.Context) (int, error) {
		stamps = append(stamps, time.Now())
		return 0, errors.New("flaky")
	}, RetryOptions{
		MaxRetries:   3,
		Timeout:      time.Second,
		InitialDelay: 20 * time.Millisecond,
		MaxDelay:     80 * time.Millisecond,
	})

	if len(stamps) != 4 {
		t.Fatalf("attempts = %d, want 4", len(stamps))
	}
	var prev time.Duration
	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		// Allow a small scheduling fudge factor.
		if gap < prev-5*time.Millisecond {
			t.Errorf("gap %d = %v, shorter than previous %v", i, gap, prev)
		}
		prev = gap
	}
	// First gap should be at least the initial delay.
	if first := stamps[1].Sub(stamps[0]); first < 20*time.Millisecond {
		t.Errorf("first gap = %v, want >= 20ms", first)
	}
}

// TestWithTimeout verifies a slow attempt is cut off with ErrTimeout.
func TestWithTimeout(t *testing.T) {
	start := time.Now()
	_, err := WithTimeout(context.Background(), 20*time.Millisecond, func(ctx context.Context) (int, error) {
		time.Sleep(500 * time.Millisecond)
		return 42, nil
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("timed out after %v, want ~20ms", elapsed)
	}
}

// TestRetryTimeoutsAreRetryable verifies per-attempt timeouts consume retry
// budget instead of short-circuiting.
func TestRetryTimeoutsAreRetryable(t *testing.T) {
	attempts := 0
	_, err := WithRetry(context.Background(), func(ctx context.Context) (int, error) {
		attempts++
		time.Sleep(100 * time.Millisecond)
		return 0, nil
	}, RetryOptions{
		MaxRetries:   1,
		Timeout:      10 * time.Millisecond,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
	})
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want wrapped ErrTimeout", err)
	}
}

// TestRetryContextCancel verifies a cancelled context stops further attempts.
func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	_, err := WithRetry(ctx, func(ctx context.Context) (int, error) {
		attempts++
		cancel()
		return 0, fmt.Errorf("transient")
	}, fastRetry)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

// TestIsUndefinedColumn verifies the schema-fallback trigger only fires on
// SQLSTATE 42703.
func TestIsUndefinedColumn(t *testing.T) {
	if !IsUndefinedColumn(&pgconn.PgError{Code: "42703"}) {
		t.Error("42703 should be undefined column")
	}
	if IsUndefinedColumn(&pgconn.PgError{Code: "42501"}) {
		t.Error("42501 should not be undefined column")
	}
	if IsUndefinedColumn(errors.New("column does not exist")) {
		t.Error("plain errors should not match")
	}
}
