// Package auth defines the authentication adapter contract consumed by
// the request pipeline, plus a JWT-backed implementation.
//
// The pipeline depends only on the Verifier interface. A Verifier turns
// an auth-context snapshot (headers and cookies) into an Identity, checks
// role membership, and may optionally support tenant scoping through the
// TenantVerifier capability interface.
package auth
