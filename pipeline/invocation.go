package pipeline

import (
	"context"
	"time"

	"github.com/jonwraymond/apikit/auth"
	"github.com/jonwraymond/apikit/cache"
	"github.com/jonwraymond/apikit/ratelimit"
	"github.com/jonwraymond/apikit/resilience"
	"github.com/jonwraymond/apikit/validate"
)

// HandlerFunc is the caller's business handler. It may return a plain
// value (wrapped into the canonical envelope by the success converter)
// or a *Response to control status and headers directly.
type HandlerFunc func(ctx context.Context, rc *RunContext) (any, error)

// AuthRequirement marks a call as requiring authentication.
type AuthRequirement struct {
	// Roles lists roles of which the principal must hold at least one.
	// An empty list admits any authenticated principal.
	Roles []string
}

// Options is the per-call pipeline configuration.
type Options struct {
	// Auth, when non-nil, requires authentication. A nil Auth never
	// invokes the auth adapter.
	Auth *AuthRequirement

	// TenantScoped additionally requires the verifier's tenant check to
	// pass. The verifier must implement auth.TenantVerifier; requesting
	// tenant scoping without one is a configuration error.
	TenantScoped bool

	// RateLimit overrides the per-verb default policy. A nil policy
	// applies the default when a counter store is present; set
	// Disabled to opt out entirely.
	RateLimit *ratelimit.Policy

	// Cache enables response caching for read-only (GET) calls.
	Cache *cache.Policy

	// Timeout is the per-attempt handler deadline. Zero falls back to
	// the orchestrator's default; zero both places means no timeout.
	Timeout time.Duration

	// Retry re-invokes the handler on retryable failures. Each attempt
	// runs under its own timeout budget.
	Retry *resilience.RetryConfig

	// Audit controls audit-record emission. Default: enabled.
	Audit *bool

	// ResourceID is an optional identifier stamped into audit records.
	ResourceID string

	// Schemas validates the params/query/body slots before the handler
	// runs. All failing fields across all slots are reported together.
	Schemas validate.Schemas

	// Transform overrides the orchestrator's response transformer for
	// this call.
	Transform *Transformer
}

// AuditEnabled reports whether audit emission is on for this call.
func (o Options) AuditEnabled() bool {
	return o.Audit == nil || *o.Audit
}

// Invocation is one run of the pipeline: identity and path metadata, the
// auth-context snapshot, the raw-input provider, the handler, and the
// per-call configuration.
type Invocation struct {
	// Method is the HTTP verb, or an action verb for direct calls.
	Method string

	// Path is the resource path, or an action name for direct calls.
	Path string

	// RawQuery is the raw query string, used for cache key derivation.
	RawQuery string

	// RequestID, when empty, is replaced by a generated identifier.
	RequestID string

	// ClientIP and UserAgent are stamped into audit records. ClientIP
	// also derives the anonymous rate-limit identifier.
	ClientIP  string
	UserAgent string

	// Auth is the auth-context snapshot passed to the verifier.
	Auth *auth.Request

	// Input supplies the raw params/query/body triple.
	Input func(ctx context.Context) (RawInput, error)

	// Handler is the business handler to wrap.
	Handler HandlerFunc

	Options Options
}
