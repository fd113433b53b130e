package errors

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	MaxAttempts int

	// InitialBackoff is the starting backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff between attempts.
	MaxBackoff time.Duration

	// BackoffFactor multiplies the backoff after each attempt. Values
	// below 1 keep the backoff constant.
	BackoffFactor float64

	// Jitter is the random jitter factor (0.0-1.0).
	Jitter float64

	// RetryableFunc optionally overrides IsRetryable.
	RetryableFunc func(error) bool

	// OnRetry is called before sleeping between attempts.
	OnRetry func(attempt int, err error, backoff time.Duration)
}

// DefaultRetry is the standard retry configuration: three attempts with
// exponential backoff starting at one second.
var DefaultRetry = RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: 1 * time.Second,
	MaxBackoff:     10 * time.Second,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// NoRetry disables retries.
var NoRetry = RetryConfig{
	MaxAttempts: 1,
}

// RetryOption adjusts a RetryConfig.
type RetryOption func(*RetryConfig)

// WithMaxAttempts sets the maximum number of attempts.
func WithMaxAttempts(n int) RetryOption {
	return func(cfg *RetryConfig) { cfg.MaxAttempts = n }
}

// WithInitialBackoff sets the first backoff.
func WithInitialBackoff(d time.Duration) RetryOption {
	return func(cfg *RetryConfig) { cfg.InitialBackoff = d }
}

// WithMaxBackoff caps the backoff.
func WithMaxBackoff(d time.Duration) RetryOption {
	return func(cfg *RetryConfig) { cfg.MaxBackoff = d }
}

// WithJitter sets the jitter factor.
func WithJitter(j float64) RetryOption {
	return func(cfg *RetryConfig) { cfg.Jitter = j }
}

// WithRetryableFunc replaces IsRetryable as the retry predicate.
func WithRetryableFunc(fn func(error) bool) RetryOption {
	return func(cfg *RetryConfig) { cfg.RetryableFunc = fn }
}

// WithOnRetry sets a callback invoked before each backoff sleep.
func WithOnRetry(fn func(attempt int, err error, backoff time.Duration)) RetryOption {
	return func(cfg *RetryConfig) { cfg.OnRetry = fn }
}

// NewRetryConfig returns DefaultRetry adjusted by opts.
func NewRetryConfig(opts ...RetryOption) RetryConfig {
	return DefaultRetry.With(opts...)
}

// With returns a copy of c adjusted by opts.
func (c RetryConfig) With(opts ...RetryOption) RetryConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c RetryConfig) retryable() func(error) bool {
	if c.RetryableFunc != nil {
		return c.RetryableFunc
	}
	return IsRetryable
}

func (c RetryConfig) grow(d time.Duration) time.Duration {
	if c.BackoffFactor > 1 {
		d = time.Duration(float64(d) * c.BackoffFactor)
	}
	if c.MaxBackoff > 0 && d > c.MaxBackoff {
		d = c.MaxBackoff
	}
	return d
}

// RetryResult contains the result of a retry operation.
type RetryResult[T any] struct {
	Value    T
	Err      error
	Attempts int
	Duration time.Duration
}

// WithRetryContext executes fn until it succeeds, returns a non-retryable
// error, runs out of attempts, or ctx is done. The number of attempts is
// always bounded by cfg.MaxAttempts, and at least one attempt is made
// unless ctx is already done.
func WithRetryContext[T any](
	ctx context.Context,
	cfg RetryConfig,
	fn func(context.Context) (T, error),
) RetryResult[T] {
	start := time.Now()
	finish := func(v T, err error, attempts int) RetryResult[T] {
		return RetryResult[T]{Value: v, Err: err, Attempts: attempts, Duration: time.Since(start)}
	}

	var zero T
	limit := max(cfg.MaxAttempts, 1)
	retryable := cfg.retryable()
	wait := cfg.InitialBackoff

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return finish(zero, cancelled(err, "context cancelled"), attempt-1)
		}

		v, err := fn(ctx)
		switch {
		case err == nil:
			return finish(v, nil, attempt)
		case !retryable(err):
			return finish(zero, &CategorizedError{Err: err, Category: Categorize(err), Retries: attempt}, attempt)
		case attempt >= limit:
			return finish(zero, &CategorizedError{
				Err:      err,
				Category: Categorize(err),
				Retries:  attempt,
				Context:  "max retries exceeded",
			}, attempt)
		}

		sleep := calculateBackoff(wait, cfg.Jitter)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, sleep)
		}
		if err := sleepContext(ctx, sleep); err != nil {
			return finish(zero, cancelled(err, "context cancelled during backoff"), attempt)
		}
		wait = cfg.grow(wait)
	}
}

func cancelled(err error, reason string) *CategorizedError {
	return &CategorizedError{Err: err, Category: CategoryPermanent, Context: reason}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// calculateBackoff returns base +/- base*jitter*rand.
func calculateBackoff(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return base
	}
	jitterAmount := float64(base) * jitter * (rand.Float64()*2 - 1)
	return time.Duration(float64(base) + jitterAmount)
}
