package tokenware

import (
	"github.com/goliatone/go-router"
	users "github.com/goliatone/go-users"
)

// RequireAuthenticated rejects anonymous requests with the 401 payload.
// It must run after the gate.
func RequireAuthenticated() router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if _, ok := users.IdentityFromContext(ctx.Context()); !ok {
				return users.Unauthorized(ctx, "authentication required")
			}
			return ctx.Next()
		}
	}
}

// RequireRole rejects requests whose principal lacks the role. Anonymous
// requests get 401; authenticated requests without the role get 403.
func RequireRole(role string) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			err := users.Requires(ctx.Context(), users.RequireRole(role))
			if err == nil {
				return ctx.Next()
			}
			return users.RespondError(ctx, err, nil)
		}
	}
}

// RequireAnyRole is RequireRole over a set.
func RequireAnyRole(roles ...string) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			err := users.Requires(ctx.Context(), users.RequireAnyRole(roles...))
			if err == nil {
				return ctx.Next()
			}
			return users.RespondError(ctx, err, nil)
		}
	}
}
