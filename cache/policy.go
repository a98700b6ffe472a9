package cache

import "time"

// Policy configures response caching for one call site.
type Policy struct {
	// TTL is how long cached responses live. TTL<=0 disables caching.
	TTL time.Duration

	// AllStatuses caches every response status. When false, only 2xx
	// responses are cached.
	AllStatuses bool

	// Keyer overrides the default key derivation.
	Keyer Keyer
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.TTL > 0
}

// Cacheable reports whether a response with the given status qualifies
// for a cache write under this policy.
func (p Policy) Cacheable(status int) bool {
	if p.AllStatuses {
		return true
	}
	return status >= 200 && status < 300
}

// EffectiveKeyer returns the configured keyer or the default.
func (p Policy) EffectiveKeyer() Keyer {
	if p.Keyer != nil {
		return p.Keyer
	}
	return DefaultKeyer{}
}
