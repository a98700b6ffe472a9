package ratelimit

import "time"

// Policy configures one rate-limit window.
type Policy struct {
	// Max is the number of requests admitted per window.
	Max int

	// Window is the counter window.
	Window time.Duration

	// Disabled turns rate limiting off for this call even when a
	// counter store is present.
	Disabled bool
}

// DefaultPolicy returns the per-verb default window, applied when a
// counter store is present and no explicit policy is given.
func DefaultPolicy(method string) Policy {
	switch method {
	case "GET":
		return Policy{Max: 200, Window: time.Minute}
	case "POST", "PUT", "PATCH":
		return Policy{Max: 50, Window: time.Minute}
	case "DELETE":
		return Policy{Max: 20, Window: time.Minute}
	default:
		return Policy{Max: 100, Window: time.Minute}
	}
}
