package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/apikit/apierr"
)

// Operation is a unit of work guarded by the resilience primitives.
type Operation func(ctx context.Context) (any, error)

// ExecuteWithTimeout races op against a deadline and returns the
// distinguished 408/TIMEOUT failure if op has not settled in time.
//
// The guard only stops waiting: the operation runs in its own goroutine
// and is signalled through context cancellation, but if it does not
// observe the context its side effects may still complete after the
// timeout fires. There is no forced abort.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op Operation) (any, error) {
	if timeout <= 0 {
		return op(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value any
		err   error
	}
	done := make(chan result, 1)

	go func() {
		value, err := op(ctx)
		done <- result{value: value, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apierr.Timeout()
		}
		return nil, ctx.Err()
	}
}
