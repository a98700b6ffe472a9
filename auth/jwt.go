package auth

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures the JWT verifier.
type JWTConfig struct {
	// Issuer is the expected token issuer (iss claim). Empty skips the check.
	Issuer string

	// Audience is the expected token audience (aud claim). Empty skips the check.
	Audience string

	// HeaderName is the header carrying the token.
	// Default: "Authorization"
	HeaderName string

	// TokenPrefix is the prefix before the token in the header.
	// Default: "Bearer "
	TokenPrefix string

	// CookieName, when set, is checked for a raw token if the header is
	// absent.
	CookieName string

	// PrincipalClaim is the claim holding the principal.
	// Default: "sub"
	PrincipalClaim string

	// TenantClaim is the claim holding the tenant ID.
	TenantClaim string

	// RolesClaim is the claim holding the role list.
	// Default: "roles"
	RolesClaim string
}

// KeyProvider retrieves signing keys for JWT validation.
type KeyProvider interface {
	// GetKey returns the key for the given key ID.
	GetKey(ctx context.Context, keyID string) (any, error)
}

// StaticKeyProvider provides a single static signing key.
type StaticKeyProvider struct {
	key []byte
}

// NewStaticKeyProvider creates a static key provider.
func NewStaticKeyProvider(key []byte) *StaticKeyProvider {
	return &StaticKeyProvider{key: key}
}

// GetKey returns the static key.
func (p *StaticKeyProvider) GetKey(_ context.Context, _ string) (any, error) {
	return p.key, nil
}

// JWTVerifier is a Verifier that validates JWT bearer tokens.
type JWTVerifier struct {
	config JWTConfig
	keys   KeyProvider
}

// NewJWTVerifier creates a JWT verifier with defaults applied.
func NewJWTVerifier(config JWTConfig, keys KeyProvider) *JWTVerifier {
	if config.HeaderName == "" {
		config.HeaderName = "Authorization"
	}
	if config.TokenPrefix == "" {
		config.TokenPrefix = "Bearer "
	}
	if config.PrincipalClaim == "" {
		config.PrincipalClaim = "sub"
	}
	if config.RolesClaim == "" {
		config.RolesClaim = "roles"
	}
	return &JWTVerifier{config: config, keys: keys}
}

// Verify validates the token from the configured header or cookie.
// A missing or invalid token yields (nil, nil); the pipeline maps that
// to an Unauthorized failure.
func (v *JWTVerifier) Verify(ctx context.Context, req *Request) (*Identity, error) {
	tokenString := v.extractToken(req)
	if tokenString == "" {
		return nil, nil
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		return v.keys.GetKey(ctx, kid)
	})
	if err != nil || !token.Valid {
		return nil, nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, nil
	}

	if v.config.Issuer != "" {
		if iss, _ := claims["iss"].(string); iss != v.config.Issuer {
			return nil, nil
		}
	}
	if v.config.Audience != "" && !hasAudience(claims, v.config.Audience) {
		return nil, nil
	}

	principal, _ := claims[v.config.PrincipalClaim].(string)
	if principal == "" {
		return nil, nil
	}

	id := &Identity{
		Principal: principal,
		Roles:     stringSlice(claims[v.config.RolesClaim]),
		Claims:    claims,
	}
	if v.config.TenantClaim != "" {
		id.TenantID, _ = claims[v.config.TenantClaim].(string)
	}
	return id, nil
}

// HasRole applies the default role-check policy.
func (v *JWTVerifier) HasRole(id *Identity, roles []string) bool {
	return HasAnyRole(id, roles)
}

// VerifyTenant reports whether the identity carries the tenant named in
// the configured tenant claim. Verifiers with richer tenancy rules can
// wrap this one.
func (v *JWTVerifier) VerifyTenant(_ context.Context, id *Identity, _ *Request) (bool, error) {
	if v.config.TenantClaim == "" {
		return true, nil
	}
	return id != nil && id.TenantID != "", nil
}

func (v *JWTVerifier) extractToken(req *Request) string {
	header := req.Header(v.config.HeaderName)
	if strings.HasPrefix(header, v.config.TokenPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, v.config.TokenPrefix))
	}
	if v.config.CookieName != "" {
		return req.Cookie(v.config.CookieName)
	}
	return ""
}

func hasAudience(claims jwt.MapClaims, want string) bool {
	switch aud := claims["aud"].(type) {
	case string:
		return aud == want
	case []any:
		for _, a := range aud {
			if s, ok := a.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

func stringSlice(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

var (
	_ Verifier       = (*JWTVerifier)(nil)
	_ TenantVerifier = (*JWTVerifier)(nil)
)
