package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jonwraymond/apikit/apierr"
	"github.com/jonwraymond/apikit/auth"
	"github.com/jonwraymond/apikit/cache"
)

// Route binds a handler and its options to the HTTP call shape.
type Route struct {
	Handler HandlerFunc
	Options Options

	// Params extracts path parameters. Routing is external; whatever
	// router is in use supplies them here.
	Params func(r *http.Request) any

	// Input overrides the default transport parsing (flattened query
	// values plus a JSON body).
	Input func(r *http.Request) (RawInput, error)
}

// HTTPHandler adapts the orchestrator to net/http for one route.
//
// It panics at registration time when the route's options demand wiring
// the orchestrator does not have (auth requirement with no verifier,
// tenant scoping without a tenant-capable verifier): configuration
// errors are programmer mistakes, not request failures.
func (o *Orchestrator) HTTPHandler(route Route) http.HandlerFunc {
	if route.Handler == nil {
		panic("pipeline: route handler is required")
	}
	if err := o.checkOptions(route.Options); err != nil {
		panic(err)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		inv := &Invocation{
			Method:    r.Method,
			Path:      r.URL.Path,
			RawQuery:  r.URL.RawQuery,
			RequestID: r.Header.Get("X-Request-ID"),
			ClientIP:  clientIP(r),
			UserAgent: r.UserAgent(),
			Auth:      auth.FromHTTP(r),
			Handler:   route.Handler,
			Options:   route.Options,
		}
		inv.Input = func(_ context.Context) (RawInput, error) {
			raw, err := parseInput(r, route.Input)
			if err != nil {
				return raw, err
			}
			if route.Params != nil {
				raw.Params = route.Params(r)
			}
			return raw, nil
		}

		res, err := o.run(r.Context(), inv)
		if err != nil {
			panic(err)
		}
		o.writeHTTP(r.Context(), w, inv, &res)
	}
}

func parseInput(r *http.Request, override func(*http.Request) (RawInput, error)) (RawInput, error) {
	if override != nil {
		return override(r)
	}

	var raw RawInput

	query := make(map[string]any, len(r.URL.Query()))
	for name, values := range r.URL.Query() {
		if len(values) == 1 {
			query[name] = values[0]
		} else {
			query[name] = values
		}
	}
	raw.Query = query

	if r.Body == nil || r.Body == http.NoBody {
		return raw, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return raw, apierr.BadRequest("Unable to read request body")
	}
	if len(body) == 0 {
		return raw, nil
	}
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return raw, apierr.BadRequest("Request body is not valid JSON")
	}
	raw.Body = decoded
	return raw, nil
}

// writeHTTP translates a run result onto the response writer and
// performs the post-success cache write.
func (o *Orchestrator) writeHTTP(ctx context.Context, w http.ResponseWriter, inv *Invocation, res *runResult) {
	header := w.Header()
	header.Set("X-Request-ID", res.requestID)
	if res.cache.configured {
		header.Set("X-Cache", "MISS")
	}

	if res.rate != nil && !res.rate.Allowed {
		header.Set("X-RateLimit-Limit", strconv.Itoa(res.rate.Limit))
		header.Set("X-RateLimit-Remaining", "0")
		header.Set("X-RateLimit-Reset", strconv.FormatInt(res.rate.ResetAt.Unix(), 10))
		header.Set("Retry-After", strconv.Itoa(retryAfterSeconds(res.rate.ResetAt)))
	}

	// Cache hit: replay the stored envelope verbatim, marked as a hit.
	if res.cache.hit {
		env := res.cache.envelope
		for name, values := range env.Header {
			for _, v := range values {
				header.Add(name, v)
			}
		}
		header.Set("X-Cache", "HIT")
		if header.Get("Content-Type") == "" {
			header.Set("Content-Type", "application/json")
		}
		w.WriteHeader(env.Status)
		_, _ = w.Write(env.Body)
		return
	}

	transformer := o.transformerFor(inv.Options)
	status := http.StatusOK
	var payload any
	var handlerHeader http.Header

	switch {
	case !res.outcome.OK():
		e := res.outcome.Err
		status = e.Status
		payload = transformer.Error(e.Message, e.Code, e.Status, e.Details)
	default:
		if resp, ok := res.outcome.Value.(*Response); ok {
			if resp.Status > 0 {
				status = resp.Status
			}
			for name, values := range resp.Header {
				for _, v := range values {
					header.Add(name, v)
				}
			}
			handlerHeader = resp.Header
			payload = resp.Body
		} else {
			payload = transformer.Success(res.outcome.Value, status)
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		e := apierr.Internal()
		status = e.Status
		body, _ = json.Marshal(transformer.Error(e.Message, e.Code, e.Status, nil))
	}

	header.Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)

	if res.outcome.OK() {
		// Handler-set headers are part of the stored response so a hit
		// replays them. Per-request headers (X-Request-ID, X-Cache, rate
		// headers) are set directly on the writer and stay out.
		envHeader := make(map[string][]string, len(handlerHeader)+1)
		for name, values := range handlerHeader {
			envHeader[name] = values
		}
		envHeader["Content-Type"] = []string{"application/json"}
		o.writeCache(ctx, res, &cache.Envelope{
			Status: status,
			Header: envHeader,
			Body:   body,
		})
	}
}

func retryAfterSeconds(resetAt time.Time) int {
	secs := int(time.Until(resetAt).Seconds() + 0.999)
	if secs < 1 {
		return 1
	}
	return secs
}

// clientIP extracts the caller address, honoring X-Forwarded-For.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
