package auth

import "context"

// Verifier is the authentication adapter consumed by the pipeline.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Verify returns (nil, nil) when no valid credential is present; the
//     pipeline maps that to an Unauthorized failure. Errors are reserved
//     for internal adapter faults.
type Verifier interface {
	// Verify extracts and validates credentials from the auth context.
	Verify(ctx context.Context, req *Request) (*Identity, error)

	// HasRole reports whether the identity satisfies the role list.
	// An empty list admits any authenticated identity.
	HasRole(id *Identity, roles []string) bool
}

// TenantVerifier is the optional capability a Verifier must expose for
// tenant-scoped calls. The pipeline treats its absence as a
// configuration error when tenant scoping is requested.
type TenantVerifier interface {
	// VerifyTenant reports whether the identity is valid for the tenant
	// implied by the auth context.
	VerifyTenant(ctx context.Context, id *Identity, req *Request) (bool, error)
}

// VerifierFunc adapts a verify function to the Verifier interface, with
// default role semantics (empty list admits, otherwise any listed role
// must be held).
type VerifierFunc func(ctx context.Context, req *Request) (*Identity, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, req *Request) (*Identity, error) {
	return f(ctx, req)
}

// HasRole implements the default role check.
func (f VerifierFunc) HasRole(id *Identity, roles []string) bool {
	return HasAnyRole(id, roles)
}

// HasAnyRole is the default role-check policy: an empty role list admits
// any authenticated identity; otherwise the identity must hold at least
// one of the listed roles.
func HasAnyRole(id *Identity, roles []string) bool {
	if id == nil {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if id.HasRole(role) {
			return true
		}
	}
	return false
}
