// Package retry provides retry mechanisms with exponential backoff
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts     int              // Maximum number of attempts (0 = unlimited)
	InitialDelay    time.Duration    // Initial delay between retries
	MaxDelay        time.Duration    // Maximum delay between retries
	Multiplier      float64          // Backoff multiplier
	RandomizeFactor float64          // Jitter factor (0-1)
	RetryIf         func(error) bool // Function to determine if error is retryable
	// OnRetry is called after a failed attempt that will be retried
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultConfig returns a default retry configuration
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:     3,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        30 * time.Second,
		Multiplier:      2.0,
		RandomizeFactor: 0.1,
		RetryIf:         DefaultRetryIf,
	}
}

// ExponentialBackoff creates a config with exponential backoff
func ExponentialBackoff(maxAttempts int) *Config {
	cfg := DefaultConfig()
	cfg.MaxAttempts = maxAttempts
	cfg.InitialDelay = 250 * time.Millisecond
	cfg.MaxDelay = 10 * time.Second
	return cfg
}

// Operation represents a retryable operation
type Operation func(ctx context.Context) error

// Result contains the result of a retry operation
type Result struct {
	Attempts int           // Number of attempts made
	Duration time.Duration // Total duration of all attempts
	Err      error         // Final error (nil if successful)
}

// Retrier provides retry functionality
type Retrier struct {
	config *Config
}

// New creates a new retrier with the given configuration
func New(config *Config) *Retrier {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Multiplier < 1 {
		config.Multiplier = 1
	}
	if config.RandomizeFactor < 0 {
		config.RandomizeFactor = 0
	} else if config.RandomizeFactor > 1 {
		config.RandomizeFactor = 1
	}
	if config.RetryIf == nil {
		config.RetryIf = DefaultRetryIf
	}
	return &Retrier{config: config}
}

// Do executes the operation with retries
func (r *Retrier) Do(ctx context.Context, op Operation) *Result {
	start := time.Now()
	result := &Result{}

	var lastErr error
	delay := r.config.InitialDelay

retryLoop:
	for attempt := 1; r.config.MaxAttempts == 0 || attempt <= r.config.MaxAttempts; attempt++ {
		result.Attempts = attempt

		if err := ctx.Err(); err != nil {
			lastErr = fmt.Errorf("context cancelled: %w", err)
			break
		}

		err := op(ctx)
		if err == nil {
			result.Duration = time.Since(start)
			return result
		}
		lastErr = err

		if !r.config.RetryIf(err) {
			break
		}
		if r.config.MaxAttempts > 0 && attempt >= r.config.MaxAttempts {
			break
		}

		wait := r.jitter(delay)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, wait, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			delay = r.nextDelay(delay)
		case <-ctx.Done():
			timer.Stop()
			lastErr = fmt.Errorf("context cancelled during retry delay: %w", ctx.Err())
			break retryLoop
		}
	}

	result.Duration = time.Since(start)
	result.Err = lastErr
	return result
}

// jitter spreads delay by the randomize factor
func (r *Retrier) jitter(delay time.Duration) time.Duration {
	if r.config.RandomizeFactor == 0 {
		return delay
	}
	delta := float64(delay) * r.config.RandomizeFactor
	minDelay := float64(delay) - delta
	return time.Duration(minDelay + rand.Float64()*(2*delta)) // #nosec G404 -- jitter only
}

// nextDelay calculates the next delay with exponential backoff
func (r *Retrier) nextDelay(currentDelay time.Duration) time.Duration {
	next := time.Duration(float64(currentDelay) * r.config.Multiplier)
	if r.config.MaxDelay > 0 && next > r.config.MaxDelay {
		return r.config.MaxDelay
	}
	return next
}

// PermanentError represents a permanent error that should not be retried
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent marks err as not retryable
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// DefaultRetryIf retries everything except permanent errors and context
// cancellation.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	var permErr *PermanentError
	if errors.As(err, &permErr) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// RetryWithConfig executes the operation with custom configuration
func RetryWithConfig(ctx context.Context, config *Config, op Operation) error {
	return New(config).Do(ctx, op).Err
}
