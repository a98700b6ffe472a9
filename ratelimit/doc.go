// Package ratelimit implements fixed-window rate limiting over the
// pipeline's counter store.
//
// The limiter is fail-open: with no store configured, every request is
// admitted. The reset time in a decision is an estimate computed as
// now+window at check time, not a readback of the counter's true expiry;
// that approximation keeps the check to a single atomic increment.
package ratelimit
