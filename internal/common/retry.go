package common

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// RetryPolicy decides whether a failed operation should be retried and how
// long to wait before the next attempt. It holds no state beyond its
// parameters; call sites share one policy value per concern.
type RetryPolicy struct {
	MaxAttempts  int           // total attempts including the first
	BaseDelay    time.Duration // delay before the second attempt
	MaxDelay     time.Duration // cap for the exponential growth
	EnableJitter bool
}

// DefaultRetryPolicy returns the policy used when a call site does not
// configure its own (3 attempts, 2s base, 30s cap, jitter on).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		BaseDelay:    2 * time.Second,
		MaxDelay:     30 * time.Second,
		EnableJitter: true,
	}
}

// ShouldRetry reports whether another attempt is allowed after err on the
// given attempt number (1-based) and the delay to wait before it.
// Fatal errors give up on attempt 1 regardless of remaining budget.
func (p RetryPolicy) ShouldRetry(err error, attempt int) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}
	if attempt >= p.MaxAttempts {
		return 0, false
	}
	if !IsRetryable(err) {
		return 0, false
	}
	return p.delayFor(attempt), true
}

// delayFor computes the backoff delay before attempt+1. Growth is
// baseDelay * 2^(attempt-1), capped at MaxDelay, with up to 50% random
// jitter subtracted to avoid synchronized retries.
func (p RetryPolicy) delayFor(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.EnableJitter && delay > 0 {
		delay = time.Duration(float64(delay) * (0.5 + rand.Float64()*0.5))
	}
	return delay
}

// IsRetryable reports whether err belongs to a transient class: timeouts,
// connection resets, or generic network failures.
func IsRetryable(err error) bool {
	if err == nil || IsFatal(err) || IsContextError(err) {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrNetworkFailure) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	// Unknown errors are treated as transient: the budget bounds the damage.
	return true
}

// IsContextError checks if an error is context-related (cancelled or deadline exceeded)
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// WaitWithCancellation waits for a duration or until context is cancelled
func WaitWithCancellation(ctx context.Context, duration time.Duration) error {
	select {
	case <-time.After(duration):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RetryResult represents the outcome of an Execute call.
type RetryResult struct {
	Attempts      int
	LastError     error
	Success       bool
	TotalDuration time.Duration
}

// Execute runs fn under the policy with context cancellation support.
// The attempt number passed to fn is 1-based.
func (p RetryPolicy) Execute(ctx context.Context, logger zerolog.Logger, operation string, fn func(attempt int) error) RetryResult {
	startTime := time.Now()
	result := RetryResult{}

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result.Attempts = attempt

		if err := ctx.Err(); err != nil {
			result.LastError = err
			result.TotalDuration = time.Since(startTime)
			return result
		}

		err := fn(attempt)
		if err == nil {
			result.Success = true
			result.TotalDuration = time.Since(startTime)
			return result
		}
		result.LastError = err

		delay, retry := p.ShouldRetry(err, attempt)
		if !retry {
			if IsFatal(err) {
				logger.Error().Err(err).Str("operation", operation).Msg("Fatal error, not retrying")
			}
			break
		}

		logger.Warn().
			Err(err).
			Str("operation", operation).
			Int("attempt", attempt).
			Int("max_attempts", p.MaxAttempts).
			Dur("delay", delay).
			Msg("Operation failed, retrying after delay")

		if werr := WaitWithCancellation(ctx, delay); werr != nil {
			result.LastError = werr
			break
		}
	}

	result.TotalDuration = time.Since(startTime)
	return result
}
