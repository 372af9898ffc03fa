// ABOUTME: Retry logic with exponential backoff and jitter for LLM API calls.
// ABOUTME: Provides RetryPolicy configuration that respects per-error retryability.

package llm

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy configures how retry behavior works for LLM API calls.
type RetryPolicy struct {
	// MaxRetries is the maximum number of retry attempts (not counting the initial call).
	MaxRetries int

	// BaseDelay is the initial delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay is the upper bound on the delay between retries.
	MaxDelay time.Duration

	// BackoffMultiplier controls exponential growth of the delay between retries.
	BackoffMultiplier float64

	// Jitter adds randomness to the delay to avoid thundering herd problems.
	Jitter bool

	// OnRetry is an optional callback invoked before each retry attempt.
	OnRetry func(err error, attempt int, delay time.Duration)
}

// DefaultRetryPolicy returns a RetryPolicy with sensible defaults:
// 2 retries, 1s base delay, 60s max delay, 2x backoff, jitter enabled.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		BaseDelay:         time.Second,
		MaxDelay:          60 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// CalculateDelay computes the delay for a given retry attempt using exponential
// backoff. When Jitter is enabled, the delay is randomized between 0 and the
// calculated backoff value. The result is always capped at MaxDelay.
func (p RetryPolicy) CalculateDelay(attempt int) time.Duration {
	delayFloat := float64(p.BaseDelay) * math.Pow(p.BackoffMultiplier, float64(attempt))

	if delayFloat > float64(p.MaxDelay) {
		delayFloat = float64(p.MaxDelay)
	}

	delay := time.Duration(delayFloat)

	if p.Jitter {
		delay = time.Duration(rand.Int63n(int64(delay) + 1))
	}

	return delay
}

// ShouldRetry determines whether the operation should be retried based on the
// error and the current attempt number. Returns false for nil errors,
// non-retryable errors, and when the attempt count has reached MaxRetries.
func (p RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	if attempt >= p.MaxRetries {
		return false
	}
	return isRetryableError(err)
}

// retryable is implemented by errors that know their own retryability.
type retryable interface {
	IsRetryable() bool
}

// isRetryableError walks the error chain looking for a retryability signal.
// Errors that carry no signal are treated as non-retryable.
func isRetryableError(err error) bool {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if r, ok := e.(retryable); ok {
			return r.IsRetryable()
		}
	}
	return false
}

// Retry executes fn, retrying according to the policy. The context is checked
// before each sleep so cancellation aborts the backoff wait.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !policy.ShouldRetry(err, attempt) {
			return zero, lastErr
		}

		delay := policy.CalculateDelay(attempt)
		if policy.OnRetry != nil {
			policy.OnRetry(err, attempt, delay)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
}
