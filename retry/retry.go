package retry

import (
	"context"
	"time"

	campaigner "github.com/spetersoncode/campaigner"
)

// Do executes the given function with retry logic.
// It respects context cancellation during backoff waits, honors server
// Retry-After hints, and gives up immediately on non-transient errors.
// Returns the result on success, or the last error if all attempts fail.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !campaigner.IsTransient(err) {
			return zero, err
		}

		// Don't sleep after the last attempt
		if attempt < cfg.MaxAttempts-1 {
			delay := cfg.Delay(attempt)
			if hint := campaigner.RetryAfterOf(err); hint > delay {
				delay = hint
			}

			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return zero, lastErr
}
