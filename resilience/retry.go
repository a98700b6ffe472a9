package resilience

import (
	"context"
	"time"

	"github.com/jonwraymond/apikit/apierr"
)

// RetryConfig configures the retry policy.
type RetryConfig struct {
	// Attempts is the maximum number of attempts, including the first.
	// Default: 3
	Attempts int

	// Delay is the base backoff delay. The sleep before attempt n+1 is
	// Delay * 2^(n-1): pure exponential backoff, no jitter.
	// Default: 100ms
	Delay time.Duration

	// RetryOn lists the structured-error statuses that trigger a retry
	// when no ShouldRetry predicate is set.
	// Default: 502, 503, 504
	RetryOn []int

	// ShouldRetry, when set, alone decides retryability. Without it,
	// only structured errors with a status in RetryOn are retried;
	// unstructured errors never are.
	ShouldRetry func(err error, attempt int) bool

	// OnRetry is called before each backoff sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.Delay <= 0 {
		c.Delay = 100 * time.Millisecond
	}
	if c.RetryOn == nil {
		c.RetryOn = []int{502, 503, 504}
	}
	return c
}

// Retry re-invokes a failing operation with exponential backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a retry policy with defaults applied.
func NewRetry(config RetryConfig) *Retry {
	return &Retry{config: config.withDefaults()}
}

// Config returns the effective configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

// Execute runs op up to Attempts times. On success it returns
// immediately. A non-retryable failure, or a failure on the last
// attempt, is returned immediately with no further delay.
func (r *Retry) Execute(ctx context.Context, op Operation) (any, error) {
	for attempt := 1; ; attempt++ {
		value, err := op(ctx)
		if err == nil {
			return value, nil
		}

		if attempt >= r.config.Attempts || !r.retryable(err, attempt) {
			return nil, err
		}

		delay := r.config.Delay << (attempt - 1)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (r *Retry) retryable(err error, attempt int) bool {
	if r.config.ShouldRetry != nil {
		return r.config.ShouldRetry(err, attempt)
	}
	return apierr.IsRetryable(err, r.config.RetryOn)
}
