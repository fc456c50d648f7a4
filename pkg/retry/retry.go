// Package retry runs an operation a bounded number of times, consulting a
// caller-supplied classifier to decide whether another attempt is worthwhile.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config controls attempts and spacing.
type Config struct {
	// MaxAttempts counts the initial call; values below 1 mean one attempt.
	MaxAttempts int
	// Delay is waited between attempts.
	Delay time.Duration
	// Multiplier grows Delay after each failed attempt; 0 or 1 keeps it fixed.
	Multiplier float64
	// MaxDelay caps the grown delay when positive.
	MaxDelay time.Duration
	// IsRetryable decides whether err deserves another attempt. Nil retries every error.
	IsRetryable func(error) bool
	// OnRetry is called before sleeping with the 1-based attempt that failed.
	OnRetry func(attempt int, err error, delay time.Duration)
	// Sleep overrides the wait; tests pass a no-op.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do calls fn until it succeeds, the classifier rejects the error, attempts
// run out, or ctx ends. The returned error wraps the last failure so callers
// can still classify it with errors.Is.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	delay := cfg.Delay
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("retry interrupted after %d attempts: %w", attempt-1, errors.Join(lastErr, err))
			}
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if cfg.IsRetryable != nil && !cfg.IsRetryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry interrupted after %d attempts: %w", attempt, errors.Join(lastErr, err))
		}
		delay = nextDelay(delay, cfg.Multiplier, cfg.MaxDelay)
	}

	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
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

func nextDelay(current time.Duration, multiplier float64, maxDelay time.Duration) time.Duration {
	if multiplier <= 1 {
		return current
	}
	next := time.Duration(float64(current) * multiplier)
	if maxDelay > 0 && next > maxDelay {
		return maxDelay
	}
	return next
}
