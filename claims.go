package users

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents validated token claims. Token-embedded roles are
// advisory (audit, logging); authorization decisions use the roles resolved
// through the IdentityProvider at verification time.
type AuthClaims interface {
	Subject() string
	UserID() string
	Roles() []string
	Issuer() string
	HasRole(role string) bool
	HasAnyRole(roles ...string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// TokenClaims is the concrete implementation of AuthClaims. The JSON field
// names (sub, roles, iss, iat, exp) are the wire contract for interop with
// previously issued tokens.
type TokenClaims struct {
	jwt.RegisteredClaims
	RoleClaims []string `json:"roles,omitempty"`
	// Scopes is only present on minted scoped tokens.
	Scopes []string `json:"scope,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*TokenClaims)(nil)

// Subject returns the subject claim
func (c *TokenClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID carried by the subject claim
func (c *TokenClaims) UserID() string {
	return c.RegisteredClaims.Subject
}

// Roles returns the token-embedded roles in issuance order
func (c *TokenClaims) Roles() []string {
	return c.RoleClaims
}

// Issuer returns the issuer claim
func (c *TokenClaims) Issuer() string {
	return c.RegisteredClaims.Issuer
}

// HasRole checks if the token carries a specific role
func (c *TokenClaims) HasRole(role string) bool {
	return HasRole(c.RoleClaims, role)
}

// HasAnyRole checks if the token carries any of the given roles
func (c *TokenClaims) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if c.HasRole(role) {
			return true
		}
	}
	return false
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
