package pipeline

import (
	"time"

	"github.com/jonwraymond/apikit/auth"
)

// RawInput is the unvalidated input triple obtained from the caller's
// input provider. Each slot is optional and independently typed.
type RawInput struct {
	Params any
	Query  any
	Body   any
}

// RunContext is the per-invocation record threaded through the handler.
// It is built once at pipeline entry and is immutable afterwards; the
// identity is set exactly once during the authentication step.
type RunContext struct {
	RequestID string
	Method    string
	Path      string
	Identity  *auth.Identity
	Start     time.Time

	// Validated input slots. When a slot has no schema configured, the
	// raw input passes through unchanged.
	Params any
	Query  any
	Body   any
}
