package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/apikit/apierr"
	"github.com/jonwraymond/apikit/auth"
	"github.com/jonwraymond/apikit/cache"
	"github.com/jonwraymond/apikit/observe"
	"github.com/jonwraymond/apikit/ratelimit"
	"github.com/jonwraymond/apikit/validate"
)

func serve(t *testing.T, h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestHTTPHandler_AnonymousSuccess(t *testing.T) {
	o := New(Config{})
	h := o.HTTPHandler(Route{
		Handler: okHandler(map[string]any{"ok": true}),
	})

	w := serve(t, h, httptest.NewRequest("GET", "/health", nil))

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
	body := decodeBody(t, w)
	if body["success"] != true {
		t.Errorf("body = %v", body)
	}
	data, _ := body["data"].(map[string]any)
	if data["ok"] != true {
		t.Errorf("data = %v", data)
	}
}

func TestHTTPHandler_RequestIDPropagated(t *testing.T) {
	o := New(Config{})
	h := o.HTTPHandler(Route{Handler: okHandler("ok")})

	r := httptest.NewRequest("GET", "/x", nil)
	r.Header.Set("X-Request-ID", "req-42")
	w := serve(t, h, r)

	if got := w.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want the caller's value echoed", got)
	}
}

func TestHTTPHandler_UnauthorizedEnvelope(t *testing.T) {
	o := New(Config{Auth: &fakeVerifier{}})
	h := o.HTTPHandler(Route{
		Handler: okHandler("ok"),
		Options: Options{Auth: &AuthRequirement{}},
	})

	w := serve(t, h, httptest.NewRequest("GET", "/users", nil))

	if w.Code != 401 {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	body := decodeBody(t, w)
	if body["success"] != false {
		t.Errorf("body = %v", body)
	}
	if body["code"] != apierr.CodeUnauthorized {
		t.Errorf("code = %v, want %s", body["code"], apierr.CodeUnauthorized)
	}
	if body["message"] != "Authentication required" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestHTTPHandler_RateLimitHeaders(t *testing.T) {
	o := New(Config{Store: cache.NewMemory()})
	h := o.HTTPHandler(Route{
		Handler: okHandler("ok"),
		Options: Options{RateLimit: &ratelimit.Policy{Max: 1, Window: time.Minute}},
	})

	if w := serve(t, h, httptest.NewRequest("GET", "/limited", nil)); w.Code != 200 {
		t.Fatalf("first request status = %d, want 200", w.Code)
	}

	w := serve(t, h, httptest.NewRequest("GET", "/limited", nil))
	if w.Code != 429 {
		t.Fatalf("second request status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "1" {
		t.Errorf("X-RateLimit-Limit = %q, want 1", got)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}
	if w.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("X-RateLimit-Reset header missing")
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	body := decodeBody(t, w)
	if body["code"] != apierr.CodeTooManyRequests {
		t.Errorf("code = %v", body["code"])
	}
}

func TestHTTPHandler_RateLimitSeparatesClients(t *testing.T) {
	o := New(Config{Store: cache.NewMemory()})
	h := o.HTTPHandler(Route{
		Handler: okHandler("ok"),
		Options: Options{RateLimit: &ratelimit.Policy{Max: 1, Window: time.Minute}},
	})

	a := httptest.NewRequest("GET", "/limited", nil)
	a.Header.Set("X-Forwarded-For", "10.0.0.1")
	b := httptest.NewRequest("GET", "/limited", nil)
	b.Header.Set("X-Forwarded-For", "10.0.0.2")

	if w := serve(t, h, a); w.Code != 200 {
		t.Fatalf("client a status = %d", w.Code)
	}
	if w := serve(t, h, b); w.Code != 200 {
		t.Errorf("client b status = %d; anonymous clients must be limited per address", w.Code)
	}
}

func TestHTTPHandler_SanitizedServerError(t *testing.T) {
	logger := observe.NewCapture()
	o := New(Config{Logger: logger})
	h := o.HTTPHandler(Route{
		Handler: func(_ context.Context, _ *RunContext) (any, error) {
			return nil, errors.New("dial tcp 10.0.0.5:5432: connect refused")
		},
	})

	w := serve(t, h, httptest.NewRequest("GET", "/broken", nil))

	if w.Code != 500 {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	body := decodeBody(t, w)
	if body["message"] != "Internal server error" {
		t.Errorf("message = %v; internals must not leak", body["message"])
	}
	if strings.Contains(w.Body.String(), "10.0.0.5") {
		t.Error("original error text leaked into the response body")
	}
	if logger.CountLevel("error") != 1 || !logger.Contains("error", "connect refused") {
		t.Error("original cause must be logged server-side exactly once at error level")
	}
}

func TestHTTPHandler_ValidationErrors(t *testing.T) {
	type createUser struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"required"`
	}
	o := New(Config{})
	h := o.HTTPHandler(Route{
		Handler: okHandler("ok"),
		Options: Options{Schemas: validate.Schemas{Body: validate.Struct(createUser{})}},
	})

	r := httptest.NewRequest("POST", "/users", strings.NewReader(`{"email":"nope"}`))
	w := serve(t, h, r)

	if w.Code != 422 {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	body := decodeBody(t, w)
	errs, _ := body["errors"].([]any)
	if len(errs) != 2 {
		t.Errorf("errors = %v, want both failing fields", body["errors"])
	}
}

func TestHTTPHandler_MalformedJSONBody(t *testing.T) {
	o := New(Config{})
	h := o.HTTPHandler(Route{Handler: okHandler("ok")})

	r := httptest.NewRequest("POST", "/users", strings.NewReader("{not json"))
	w := serve(t, h, r)

	if w.Code != 400 {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHTTPHandler_CacheMissThenHit(t *testing.T) {
	o := New(Config{Store: cache.NewMemory()})

	calls := 0
	h := o.HTTPHandler(Route{
		Handler: func(_ context.Context, _ *RunContext) (any, error) {
			calls++
			return map[string]any{"n": calls}, nil
		},
		Options: Options{Cache: &cache.Policy{TTL: time.Minute}},
	})

	first := serve(t, h, httptest.NewRequest("GET", "/items?page=1", nil))
	if first.Code != 200 {
		t.Fatalf("first status = %d", first.Code)
	}
	if got := first.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("first X-Cache = %q, want MISS", got)
	}

	second := serve(t, h, httptest.NewRequest("GET", "/items?page=1", nil))
	if got := second.Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("second X-Cache = %q, want HIT", got)
	}
	if calls != 1 {
		t.Errorf("handler called %d times, want 1; a hit must not invoke the handler", calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("replayed body %q differs from original %q", second.Body.String(), first.Body.String())
	}
	if got := second.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestHTTPHandler_CacheHitSkipsAuth(t *testing.T) {
	verifier := &fakeVerifier{}
	o := New(Config{Auth: verifier, Store: cache.NewMemory()})

	h := o.HTTPHandler(Route{
		Handler: okHandler("ok"),
		Options: Options{
			Auth:  &AuthRequirement{},
			Cache: &cache.Policy{TTL: time.Minute},
		},
	})

	if w := serve(t, h, httptest.NewRequest("GET", "/items", nil)); w.Code != 401 {
		t.Fatalf("unauthenticated miss status = %d, want 401", w.Code)
	}

	// Prime the cache with an authenticated request, then hit it without
	// credentials: the hit short-circuits before the auth step.
	verifier.identity = &auth.Identity{Principal: "user-1"}
	authed := httptest.NewRequest("GET", "/items", nil)
	authed.Header.Set("Authorization", "Bearer anything")
	if w := serve(t, h, authed); w.Code != 200 {
		t.Fatalf("authenticated miss status = %d, want 200", w.Code)
	}
	before := verifier.verifyCalls()

	w := serve(t, h, httptest.NewRequest("GET", "/items", nil))
	if w.Code != 200 {
		t.Errorf("hit status = %d, want 200", w.Code)
	}
	if w.Header().Get("X-Cache") != "HIT" {
		t.Errorf("X-Cache = %q, want HIT", w.Header().Get("X-Cache"))
	}
	if verifier.verifyCalls() != before {
		t.Error("a cache hit must not reach the verifier")
	}
}

func TestHTTPHandler_CacheReplaysHandlerHeaders(t *testing.T) {
	o := New(Config{Store: cache.NewMemory()})
	h := o.HTTPHandler(Route{
		Handler: func(_ context.Context, _ *RunContext) (any, error) {
			return &Response{
				Header: http.Header{"Etag": {"v1"}, "Last-Modified": {"Mon, 02 Jan 2006 15:04:05 GMT"}},
				Body:   map[string]any{"id": 7},
			}, nil
		},
		Options: Options{Cache: &cache.Policy{TTL: time.Minute}},
	})

	first := serve(t, h, httptest.NewRequest("GET", "/items/7", nil))
	if got := first.Header().Get("Etag"); got != "v1" {
		t.Fatalf("first Etag = %q", got)
	}

	second := serve(t, h, httptest.NewRequest("GET", "/items/7", nil))
	if second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("X-Cache = %q, want HIT", second.Header().Get("X-Cache"))
	}
	if got := second.Header().Get("Etag"); got != "v1" {
		t.Errorf("replayed Etag = %q, want the handler's header preserved", got)
	}
	if got := second.Header().Get("Last-Modified"); got != "Mon, 02 Jan 2006 15:04:05 GMT" {
		t.Errorf("replayed Last-Modified = %q", got)
	}
	if second.Body.String() != first.Body.String() {
		t.Errorf("replayed body %q differs from original %q", second.Body.String(), first.Body.String())
	}
}

func TestHTTPHandler_NonGETNeverCached(t *testing.T) {
	o := New(Config{Store: cache.NewMemory()})

	calls := 0
	h := o.HTTPHandler(Route{
		Handler: func(_ context.Context, _ *RunContext) (any, error) {
			calls++
			return "ok", nil
		},
		Options: Options{Cache: &cache.Policy{TTL: time.Minute}},
	})

	for n := 0; n < 2; n++ {
		w := serve(t, h, httptest.NewRequest("POST", "/items", nil))
		if w.Header().Get("X-Cache") != "" {
			t.Errorf("X-Cache = %q on a POST, want absent", w.Header().Get("X-Cache"))
		}
	}
	if calls != 2 {
		t.Errorf("handler called %d times, want 2", calls)
	}
}

func TestHTTPHandler_ResponsePassthrough(t *testing.T) {
	o := New(Config{})
	h := o.HTTPHandler(Route{
		Handler: func(_ context.Context, _ *RunContext) (any, error) {
			return &Response{
				Status: http.StatusCreated,
				Header: http.Header{"Location": {"/items/7"}},
				Body:   map[string]any{"id": 7},
			}, nil
		},
	})

	w := serve(t, h, httptest.NewRequest("POST", "/items", strings.NewReader("{}")))

	if w.Code != 201 {
		t.Errorf("status = %d, want 201", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/items/7" {
		t.Errorf("Location = %q", got)
	}
	// A *Response body is written as-is, not wrapped in the envelope.
	body := decodeBody(t, w)
	if _, wrapped := body["success"]; wrapped {
		t.Errorf("body = %v, want no envelope", body)
	}
	if body["id"] != float64(7) {
		t.Errorf("body = %v", body)
	}
}

func TestHTTPHandler_QueryAndParams(t *testing.T) {
	o := New(Config{})

	var rcQuery, rcParams any
	h := o.HTTPHandler(Route{
		Handler: func(_ context.Context, rc *RunContext) (any, error) {
			rcQuery, rcParams = rc.Query, rc.Params
			return "ok", nil
		},
		Params: func(_ *http.Request) any {
			return map[string]string{"id": "7"}
		},
	})

	serve(t, h, httptest.NewRequest("GET", "/items/7?page=2&tag=a&tag=b", nil))

	query, _ := rcQuery.(map[string]any)
	if query["page"] != "2" {
		t.Errorf("query = %v", query)
	}
	if tags, _ := query["tag"].([]string); len(tags) != 2 {
		t.Errorf("repeated query values = %v", query["tag"])
	}
	params, _ := rcParams.(map[string]string)
	if params["id"] != "7" {
		t.Errorf("params = %v", params)
	}
}

func TestHTTPHandler_CustomTransformer(t *testing.T) {
	o := New(Config{})
	flat := Transformer{
		Success: func(data any, _ int) any { return data },
		Error: func(message, code string, _ int, _ []apierr.FieldError) any {
			return map[string]string{"error": code}
		},
	}
	h := o.HTTPHandler(Route{
		Handler: okHandler(map[string]any{"id": 1}),
		Options: Options{Transform: &flat},
	})

	w := serve(t, h, httptest.NewRequest("GET", "/items/1", nil))
	body := decodeBody(t, w)
	if _, wrapped := body["success"]; wrapped {
		t.Errorf("body = %v, want the per-call transformer applied", body)
	}
	if body["id"] != float64(1) {
		t.Errorf("body = %v", body)
	}
}

func TestHTTPHandler_PanicsOnMissingHandler(t *testing.T) {
	o := New(Config{})
	defer func() {
		if recover() == nil {
			t.Error("HTTPHandler with no handler should panic at registration")
		}
	}()
	o.HTTPHandler(Route{})
}

func TestHTTPHandler_PanicsOnConfigError(t *testing.T) {
	o := New(Config{}) // no verifier
	defer func() {
		if recover() == nil {
			t.Error("auth requirement with no verifier should panic at registration")
		}
	}()
	o.HTTPHandler(Route{
		Handler: okHandler("ok"),
		Options: Options{Auth: &AuthRequirement{}},
	})
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	if got := clientIP(r); got != "192.0.2.1" {
		t.Errorf("clientIP = %q", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(r); got != "203.0.113.9" {
		t.Errorf("clientIP with X-Forwarded-For = %q, want first hop", got)
	}
}
