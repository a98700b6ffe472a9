package auth

// Identity represents an authenticated principal. It is owned by one
// invocation and never shared across invocations.
type Identity struct {
	// Principal is the unique identifier (e.g. user ID, email). The
	// anonymous identity has an empty principal.
	Principal string

	// TenantID is the tenant this identity belongs to.
	TenantID string

	// Roles are the roles assigned to this identity.
	Roles []string

	// Claims contains raw claims from the credential, if any.
	Claims map[string]any
}

// Anonymous returns the anonymous sentinel identity: empty principal,
// no roles.
func Anonymous() *Identity {
	return &Identity{Claims: make(map[string]any)}
}

// IsAnonymous returns true for the anonymous sentinel.
func (id *Identity) IsAnonymous() bool {
	return id == nil || id.Principal == ""
}

// HasRole checks if the identity carries a specific role.
func (id *Identity) HasRole(role string) bool {
	if id == nil {
		return false
	}
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}
