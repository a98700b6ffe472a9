package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/apikit/apierr"
	"github.com/jonwraymond/apikit/auth"
	"github.com/jonwraymond/apikit/cache"
	"github.com/jonwraymond/apikit/observe"
	"github.com/jonwraymond/apikit/ratelimit"
	"github.com/jonwraymond/apikit/resilience"
	"github.com/jonwraymond/apikit/validate"
)

// Configuration errors. These indicate a wiring mistake, not a runtime
// condition: they are never retried and never translated into structured
// failures.
var (
	// ErrNoVerifier is returned when a call requires authentication but
	// no auth verifier is configured.
	ErrNoVerifier = errors.New("pipeline: auth required but no verifier configured")

	// ErrNoTenantVerifier is returned when a call is tenant-scoped but
	// the verifier does not implement auth.TenantVerifier.
	ErrNoTenantVerifier = errors.New("pipeline: tenant scoping requires a tenant-capable verifier")
)

// Config wires the orchestrator's adapters. All adapters are externally
// owned; the orchestrator holds no locks over them and performs no
// transactions spanning multiple adapter calls.
type Config struct {
	// Auth verifies credentials. Required only when calls declare an
	// auth requirement.
	Auth auth.Verifier

	// Store backs response caching and rate-limit counters. With no
	// store, caching is off and rate limiting fails open.
	Store cache.Store

	// Logger receives structured logs and audit records.
	// Default: discard.
	Logger observe.Logger

	// Tracer traces each invocation. Default: no-op.
	Tracer trace.Tracer

	// Transform shapes response bodies. Default: canonical envelopes.
	Transform *Transformer

	// DefaultTimeout applies to calls without a per-call timeout.
	DefaultTimeout time.Duration
}

// Orchestrator sequences the pipeline steps around business handlers.
// One orchestrator serves many concurrent invocations; all per-request
// state lives in the invocation's RunContext.
type Orchestrator struct {
	auth           auth.Verifier
	store          cache.Store
	logger         observe.Logger
	tracer         trace.Tracer
	transform      Transformer
	defaultTimeout time.Duration
}

// New creates an orchestrator with defaults applied.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		auth:           cfg.Auth,
		store:          cfg.Store,
		logger:         cfg.Logger,
		tracer:         observe.TracerOrNoop(cfg.Tracer),
		transform:      DefaultTransformer(),
		defaultTimeout: cfg.DefaultTimeout,
	}
	if o.logger == nil {
		o.logger = observe.NopLogger{}
	}
	if cfg.Transform != nil {
		o.transform = *cfg.Transform
	}
	return o
}

// runResult carries one invocation's outcome to its translator.
type runResult struct {
	requestID string
	identity  *auth.Identity
	outcome   Outcome
	rate      *ratelimit.Decision
	cache     cacheState
}

type cacheState struct {
	configured bool
	hit        bool
	key        string
	policy     cache.Policy
	envelope   *cache.Envelope
}

// checkOptions validates the wiring a call's options demand.
func (o *Orchestrator) checkOptions(opts Options) error {
	if opts.Auth != nil && o.auth == nil {
		return ErrNoVerifier
	}
	if opts.TenantScoped {
		if o.auth == nil {
			return ErrNoTenantVerifier
		}
		if _, ok := o.auth.(auth.TenantVerifier); !ok {
			return ErrNoTenantVerifier
		}
	}
	return nil
}

// run executes the pipeline sequence. The returned error is non-nil only
// for configuration errors; every runtime failure is captured in the
// result's outcome after passing through the failure path exactly once.
func (o *Orchestrator) run(ctx context.Context, inv *Invocation) (runResult, error) {
	if err := o.checkOptions(inv.Options); err != nil {
		return runResult{}, err
	}

	requestID := inv.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	ctx, span := o.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("request.id", requestID),
		attribute.String("request.method", inv.Method),
		attribute.String("request.path", inv.Path),
	))
	defer span.End()

	start := time.Now()
	res := runResult{requestID: requestID, identity: auth.Anonymous()}

	o.logger.Debug(ctx, "request started",
		observe.F("request_id", requestID),
		observe.F("method", inv.Method),
		observe.F("path", inv.Path),
	)

	// Cache lookup. A hit short-circuits the entire pipeline: no auth,
	// no validation, no handler.
	res.cache = o.cacheStateFor(inv)
	if res.cache.configured {
		if raw, ok := o.store.Get(ctx, res.cache.key); ok {
			if env, err := cache.DecodeEnvelope(raw); err == nil {
				res.cache.hit = true
				res.cache.envelope = env
				res.outcome = Success(nil)
				span.SetAttributes(attribute.Bool("cache.hit", true))
				o.succeed(ctx, inv, &res, start, env.Status)
				return res, nil
			}
			// Unreadable entry: drop it and treat as a miss.
			_ = o.store.Delete(ctx, res.cache.key)
		}
	}

	// Authentication.
	if req := inv.Options.Auth; req != nil {
		id, err := o.auth.Verify(ctx, inv.Auth)
		if err != nil {
			return o.fail(ctx, inv, &res, start, span, err), nil
		}
		if id == nil {
			return o.fail(ctx, inv, &res, start, span, apierr.Unauthorized("Authentication required")), nil
		}
		if len(req.Roles) > 0 && !o.auth.HasRole(id, req.Roles) {
			return o.fail(ctx, inv, &res, start, span, apierr.Forbidden("Insufficient permissions")), nil
		}
		res.identity = id
	}

	// Tenant scoping.
	if inv.Options.TenantScoped {
		tv := o.auth.(auth.TenantVerifier)
		ok, err := tv.VerifyTenant(ctx, res.identity, inv.Auth)
		if err != nil {
			return o.fail(ctx, inv, &res, start, span, err), nil
		}
		if !ok {
			return o.fail(ctx, inv, &res, start, span, apierr.Forbidden("Tenant access denied")), nil
		}
	}

	// Rate limiting: one atomic increment, fail-open on store faults.
	// A rejection never invokes the handler and is not retryable.
	if o.store != nil && (inv.Options.RateLimit == nil || !inv.Options.RateLimit.Disabled) {
		policy := ratelimit.DefaultPolicy(inv.Method)
		if inv.Options.RateLimit != nil {
			policy = *inv.Options.RateLimit
		}
		key := ratelimit.Key(inv.Method, inv.Path, limiterID(inv, res.identity))
		decision, err := ratelimit.Check(ctx, o.store, key, policy)
		if err != nil {
			o.logger.Warn(ctx, "rate limit check failed",
				observe.F("request_id", requestID),
				observe.F("error", err.Error()),
			)
		}
		if !decision.Allowed {
			res.rate = &decision
			return o.fail(ctx, inv, &res, start, span, apierr.TooManyRequests("Rate limit exceeded")), nil
		}
	}

	// Input retrieval and validation.
	var raw RawInput
	if inv.Input != nil {
		var err error
		if raw, err = inv.Input(ctx); err != nil {
			return o.fail(ctx, inv, &res, start, span, err), nil
		}
	}
	params, query, body, details := validateInput(inv.Options.Schemas, raw)
	if len(details) > 0 {
		return o.fail(ctx, inv, &res, start, span, apierr.Validation("Validation failed", details)), nil
	}

	// Context construction.
	rc := &RunContext{
		RequestID: requestID,
		Method:    inv.Method,
		Path:      inv.Path,
		Identity:  res.identity,
		Start:     start,
		Params:    params,
		Query:     query,
		Body:      body,
	}

	// Handler execution under retry and the per-attempt timeout guard.
	value, err := o.execute(ctx, inv, rc)
	if err != nil {
		return o.fail(ctx, inv, &res, start, span, err), nil
	}

	res.outcome = Success(value)
	o.succeed(ctx, inv, &res, start, http.StatusOK)
	return res, nil
}

// execute invokes the handler wrapped by the retry policy around the
// timeout guard. Each attempt gets its own full timeout budget, so total
// wall time can exceed the configured timeout by attempts x timeout.
func (o *Orchestrator) execute(ctx context.Context, inv *Invocation, rc *RunContext) (any, error) {
	timeout := inv.Options.Timeout
	if timeout <= 0 {
		timeout = o.defaultTimeout
	}

	op := func(ctx context.Context) (any, error) {
		return o.invokeHandler(ctx, inv.Handler, rc)
	}
	if timeout > 0 {
		handler := op
		op = func(ctx context.Context) (any, error) {
			return resilience.ExecuteWithTimeout(ctx, timeout, handler)
		}
	}

	if inv.Options.Retry == nil {
		return op(ctx)
	}

	cfg := *inv.Options.Retry
	onRetry := cfg.OnRetry
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		o.logger.Warn(ctx, "retrying handler",
			observe.F("request_id", rc.RequestID),
			observe.F("attempt", attempt),
			observe.F("delay", delay.String()),
			observe.F("error", err.Error()),
		)
		if onRetry != nil {
			onRetry(attempt, err, delay)
		}
	}
	return resilience.NewRetry(cfg).Execute(ctx, op)
}

// invokeHandler converts handler panics into errors so they follow the
// ordinary failure path.
func (o *Orchestrator) invokeHandler(ctx context.Context, h HandlerFunc, rc *RunContext) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline: handler panic: %v", r)
		}
	}()
	return h(ctx, rc)
}

// succeed finishes the success path: completion log and audit record.
func (o *Orchestrator) succeed(ctx context.Context, inv *Invocation, res *runResult, start time.Time, status int) {
	duration := time.Since(start)
	o.logger.Info(ctx, "request completed",
		observe.F("request_id", res.requestID),
		observe.F("method", inv.Method),
		observe.F("path", inv.Path),
		observe.F("status", status),
		observe.F("duration_ms", duration.Milliseconds()),
		observe.F("cache_hit", res.cache.hit),
	)
	o.emitAudit(ctx, inv, res, start, duration, status, true, "")
}

// fail is the single failure path for steps 2-7: it canonicalizes the
// error, logs it (warn for 4xx, error with full cause for 5xx), emits
// the audit record, and seals the failure outcome.
func (o *Orchestrator) fail(ctx context.Context, inv *Invocation, res *runResult, start time.Time, span trace.Span, cause error) runResult {
	e := apierr.From(cause)
	duration := time.Since(start)

	fields := []observe.Field{
		observe.F("request_id", res.requestID),
		observe.F("method", inv.Method),
		observe.F("path", inv.Path),
		observe.F("status", e.Status),
		observe.F("code", e.Code),
		observe.F("duration_ms", duration.Milliseconds()),
	}
	if e.Status >= http.StatusInternalServerError {
		// Full cause stays server-side; the caller sees the sanitized message.
		o.logger.Error(ctx, "request failed", cause, fields...)
	} else {
		o.logger.Warn(ctx, "request failed", fields...)
	}

	span.RecordError(cause)
	span.SetStatus(codes.Error, e.Code)

	o.emitAudit(ctx, inv, res, start, duration, e.Status, false, e.Code)
	res.outcome = Failure(e)
	return *res
}

// emitAudit emits exactly one audit record per invocation (unless
// disabled per call). A panicking audit sink must not mask the original
// outcome, so failures here are swallowed.
func (o *Orchestrator) emitAudit(ctx context.Context, inv *Invocation, res *runResult, start time.Time, duration time.Duration, status int, success bool, errorCode string) {
	if !inv.Options.AuditEnabled() {
		return
	}
	defer func() { _ = recover() }()
	o.logger.Audit(ctx, observe.Record{
		RequestID:  res.requestID,
		Principal:  res.identity.Principal,
		Action:     inv.Method,
		Resource:   inv.Path,
		ResourceID: inv.Options.ResourceID,
		IP:         inv.ClientIP,
		UserAgent:  inv.UserAgent,
		Timestamp:  start,
		Duration:   duration,
		Status:     status,
		Success:    success,
		ErrorCode:  errorCode,
	})
}

// cacheStateFor resolves whether caching applies to this invocation.
// Only the read-only verb is cacheable.
func (o *Orchestrator) cacheStateFor(inv *Invocation) cacheState {
	policy := inv.Options.Cache
	if policy == nil || o.store == nil || inv.Method != http.MethodGet || !policy.ShouldCache() {
		return cacheState{}
	}
	return cacheState{
		configured: true,
		policy:     *policy,
		key:        policy.EffectiveKeyer().Key(inv.Method, inv.Path, inv.RawQuery),
	}
}

// writeCache stores a response envelope after a successful, cacheable
// execution. Concurrent misses race independently: last writer wins.
func (o *Orchestrator) writeCache(ctx context.Context, res *runResult, env *cache.Envelope) {
	if !res.cache.configured || res.cache.hit || !res.cache.policy.Cacheable(env.Status) {
		return
	}
	raw, err := env.Encode()
	if err != nil {
		return
	}
	if err := o.store.Set(ctx, res.cache.key, raw, res.cache.policy.TTL); err != nil {
		o.logger.Warn(ctx, "cache write failed",
			observe.F("request_id", res.requestID),
			observe.F("key", res.cache.key),
			observe.F("error", err.Error()),
		)
	}
}

// transformerFor resolves the response transformer: per-call override
// first, then the orchestrator's.
func (o *Orchestrator) transformerFor(opts Options) Transformer {
	if opts.Transform != nil {
		return *opts.Transform
	}
	return o.transform
}

// limiterID picks the rate-limit identifier: the principal, or an
// identifier derived from the client address for anonymous callers.
func limiterID(inv *Invocation, id *auth.Identity) string {
	if !id.IsAnonymous() {
		return id.Principal
	}
	if inv.ClientIP != "" {
		return "anon:" + inv.ClientIP
	}
	return "anon"
}

// validateInput runs each configured schema over its slot and collects
// every failing field across all slots.
func validateInput(schemas validate.Schemas, raw RawInput) (params, query, body any, details []apierr.FieldError) {
	params, query, body = raw.Params, raw.Query, raw.Body

	run := func(s validate.Schema, in any, out *any) {
		if s == nil {
			return
		}
		value, errs := s.Validate(in)
		if len(errs) > 0 {
			details = append(details, errs...)
			return
		}
		*out = value
	}
	run(schemas.Params, raw.Params, &params)
	run(schemas.Query, raw.Query, &query)
	run(schemas.Body, raw.Body, &body)
	return params, query, body, details
}
