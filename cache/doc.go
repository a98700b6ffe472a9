// Package cache defines the store adapter and the response-caching layer
// used by the request pipeline.
//
// The Store interface is the single external contract for cached
// responses and rate-limit counters. Memory and Redis implementations are
// provided; any store with atomic increments can be substituted.
//
// Concurrent misses for the same key are not collapsed: each one executes
// independently and the last write wins. The cache layer deliberately
// offers no single-flight guarantee.
package cache
