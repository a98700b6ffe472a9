package auth

import (
	"net/http"
	"net/textproto"
)

// Request is the auth-context snapshot passed to verifiers: an opaque
// bundle of request headers (case-insensitive lookup) and parsed cookies.
type Request struct {
	headers map[string][]string
	cookies map[string]string
}

// NewRequest builds a Request from raw header and cookie maps. Header
// names are canonicalized so lookup is case-insensitive.
func NewRequest(headers map[string][]string, cookies map[string]string) *Request {
	canonical := make(map[string][]string, len(headers))
	for name, values := range headers {
		canonical[textproto.CanonicalMIMEHeaderKey(name)] = values
	}
	if cookies == nil {
		cookies = make(map[string]string)
	}
	return &Request{headers: canonical, cookies: cookies}
}

// FromHTTP builds a Request from an http.Request.
func FromHTTP(r *http.Request) *Request {
	cookies := make(map[string]string)
	for _, c := range r.Cookies() {
		cookies[c.Name] = c.Value
	}
	return &Request{headers: r.Header, cookies: cookies}
}

// Header returns the first value for a header, or "". Lookup is
// case-insensitive.
func (r *Request) Header(name string) string {
	if r == nil || r.headers == nil {
		return ""
	}
	values := r.headers[textproto.CanonicalMIMEHeaderKey(name)]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Cookie returns the named cookie value, or "".
func (r *Request) Cookie(name string) string {
	if r == nil {
		return ""
	}
	return r.cookies[name]
}
