package users

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of a resolved principal. Roles are the
// authoritative roles read from the backing store, not token claims.
type Identity interface {
	ID() string
	Username() string
	Email() string
	Roles() []string
	Enabled() bool
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (string, error)
	IdentityFromClaims(ctx context.Context, claims AuthClaims) (Identity, error)
}

// TokenService issues and validates signed tokens
type TokenService interface {
	Generate(identity Identity) (string, error)
	SignClaims(claims *TokenClaims) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// IdentityProvider ensures we have a store to resolve principals. Lookup
// failures caused by the store itself (as opposed to a missing record) must
// surface as ErrProviderUnavailable so the boundary can answer 503, not 401.
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// EventPublisher delivers lifecycle events to the bus. Implementations should
// treat delivery as at-least-once; callers treat it as best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, event UserEvent) error
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenTTL() time.Duration
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
}

// LoginPayload is the shape we expect from a login request
type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
}

// Clock supplies the current time. The default is time.Now; tests inject a
// fixed clock to exercise expiry deterministically.
type Clock func() time.Time

func systemClock() time.Time { return time.Now() }

// ParseUserID parses a subject string into a user UUID.
func ParseUserID(subject string) (uuid.UUID, error) {
	return uuid.Parse(subject)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] USERS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] USERS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] USERS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] USERS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
