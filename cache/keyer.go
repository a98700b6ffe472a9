package cache

import "strings"

// Keyer derives a deterministic cache key for a request.
//
// Contract: same inputs must produce the same key.
type Keyer interface {
	Key(method, path, query string) string
}

// KeyerFunc adapts a function to the Keyer interface.
type KeyerFunc func(method, path, query string) string

// Key calls f.
func (f KeyerFunc) Key(method, path, query string) string {
	return f(method, path, query)
}

// DefaultKeyer derives keys from the verb, path, and raw query string.
// Format: cache:<METHOD>:<path>?<query>
type DefaultKeyer struct{}

// Key derives the default cache key.
func (DefaultKeyer) Key(method, path, query string) string {
	var b strings.Builder
	b.WriteString("cache:")
	b.WriteString(method)
	b.WriteString(":")
	b.WriteString(path)
	if query != "" {
		b.WriteString("?")
		b.WriteString(query)
	}
	return b.String()
}

var _ Keyer = DefaultKeyer{}
