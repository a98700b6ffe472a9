package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/apikit/cache"
)

// Decision is the outcome of one rate-limit check. Computed fresh per
// invocation; never persisted by the caller.
type Decision struct {
	Allowed bool
	Count   int64
	Limit   int
	ResetAt time.Time
}

// Key builds the counter key for a method, path (or action name), and
// caller identifier.
func Key(method, path, id string) string {
	return fmt.Sprintf("ratelimit:%s:%s:%s", method, path, id)
}

// Check performs one atomic counter increment against the store and
// decides admit/reject.
//
// A nil store admits everything (fail-open; rate limiting is best-effort,
// not safety-critical). The post-increment count is compared against the
// policy maximum; the window TTL is set only when the counter is created.
func Check(ctx context.Context, store cache.Store, key string, p Policy) (Decision, error) {
	if store == nil || p.Disabled {
		return Decision{Allowed: true}, nil
	}

	count, err := store.Increment(ctx, key, p.Window)
	if err != nil {
		// Fail open: a broken counter store must not reject traffic.
		return Decision{Allowed: true}, fmt.Errorf("ratelimit: increment: %w", err)
	}

	return Decision{
		Allowed: count <= int64(p.Max),
		Count:   count,
		Limit:   p.Max,
		ResetAt: time.Now().Add(p.Window),
	}, nil
}
