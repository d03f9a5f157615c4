package retry

import (
	"context"
	"fmt"
	"time"

	wrapErrors "github.com/linlinbupt123-crypto/zig_transfer/errors"
)

// Policy bounds a retry loop. MaxAttempts counts the first try.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	// OnRetry runs before each wait; attempt is the 1-based attempt that failed.
	OnRetry func(attempt int, err error)
	// Sleep defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do runs op until it succeeds, fails with an error retryable rejects, or
// MaxAttempts is used up. Exhaustion is reported as RetriesExhausted wrapping
// the last error.
func Do[T any](ctx context.Context, p Policy, retryable func(error) bool, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if !retryable(err) {
			return zero, err
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if err := sleep(ctx, p.Delay); err != nil {
			return zero, err
		}
	}
	return zero, wrapErrors.WrapWithCode(wrapErrors.RetriesExhausted,
		fmt.Sprintf("failed after %d retries", attempts), lastErr)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
