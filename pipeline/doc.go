// Package pipeline implements the request-handling orchestrator: a fixed,
// ordered sequence of cross-cutting concerns wrapped around a
// caller-supplied business handler.
//
// One invocation moves through the states
//
//	Start -> Authenticating -> TenantChecking -> RateLimiting ->
//	Validating -> Executing -> Succeeding | Failing -> Done
//
// with each step able to short-circuit to the failure path. Both terminal
// states emit exactly one completion log line and, unless disabled per
// call, exactly one audit record.
//
// Two call shapes share the orchestrator: HTTPHandler adapts it to
// net/http, and Invoke runs it as a direct, non-HTTP call. The shapes are
// thin result translators over the same run sequence, not parallel
// pipelines.
//
// Handler execution is wrapped by the retry policy outside the timeout
// guard, so every attempt gets its own full timeout budget. Response
// caching (read-only verb only) is checked before everything else: a hit
// bypasses auth, validation, and the handler entirely, and concurrent
// misses for one key are intentionally not collapsed.
package pipeline
