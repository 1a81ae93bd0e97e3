package users

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

var identityCtxKey = &contextKey{"identity"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithIdentity sets the resolved principal in the given context. Identity is
// request-scoped: each request derives its own context so concurrent requests
// never observe each other's principal.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromContext finds the principal from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	raw, ok := ctx.Value(identityCtxKey).(Identity)
	if !ok || raw == nil {
		return nil, false
	}
	return raw, true
}

// WithClaims sets the validated token claims in the given context.
func WithClaims(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// ClaimsFromContext extracts the validated token claims from the context.
func ClaimsFromContext(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	if !ok || raw == nil {
		return nil, false
	}
	return raw, true
}

// Rule is a small authorization policy evaluated against the request context
// at the start of a handler.
type Rule struct {
	anyRole []string
}

// RequireAuthenticated allows any resolved principal.
func RequireAuthenticated() Rule {
	return Rule{}
}

// RequireRole requires the principal to hold the given role.
func RequireRole(role string) Rule {
	return Rule{anyRole: []string{role}}
}

// RequireAnyRole requires the principal to hold at least one of the roles.
func RequireAnyRole(roles ...string) Rule {
	return Rule{anyRole: append([]string(nil), roles...)}
}

// ErrAuthenticationRequired is returned by Requires when no principal is
// present in the context.
var ErrAuthenticationRequired = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithTextCode("AUTHENTICATION_REQUIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrInsufficientRole is returned by Requires when the principal lacks the
// required role.
var ErrInsufficientRole = goerrors.New("insufficient role", goerrors.CategoryAuthz).
	WithTextCode("INSUFFICIENT_ROLE").
	WithCode(goerrors.CodeForbidden)

// Requires evaluates rule against the principal in ctx. Handlers call this
// explicitly before doing privileged work; the roles checked are the ones
// resolved from the store at verification time.
func Requires(ctx context.Context, rule Rule) error {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return ErrAuthenticationRequired
	}

	if len(rule.anyRole) == 0 {
		return nil
	}

	for _, role := range rule.anyRole {
		if HasRole(identity.Roles(), role) {
			return nil
		}
	}

	return ErrInsufficientRole
}
