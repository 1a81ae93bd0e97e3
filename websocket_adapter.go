package users

import (
	"context"

	"github.com/goliatone/go-router"
)

// WSTokenValidator implements go-router's WSTokenValidator interface on top
// of a TokenService so WebSocket upgrades share the HTTP token contract.
type WSTokenValidator struct {
	tokenService TokenService
}

// NewWSTokenValidator creates a WebSocket token validator.
func NewWSTokenValidator(tokenService TokenService) *WSTokenValidator {
	return &WSTokenValidator{
		tokenService: tokenService,
	}
}

// Validate validates a token string and returns WebSocket-compatible claims.
func (w *WSTokenValidator) Validate(tokenString string) (router.WSAuthClaims, error) {
	claims, err := w.tokenService.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &WSAuthClaimsAdapter{claims: claims}, nil
}

// WSAuthClaimsAdapter adapts AuthClaims to go-router's WSAuthClaims
// interface. Resource permissions derive from the role: everyone
// authenticated can read, only admins mutate. Token roles are good enough
// here because a WebSocket session lives at most one token TTL.
type WSAuthClaimsAdapter struct {
	claims AuthClaims
}

func (w *WSAuthClaimsAdapter) Subject() string {
	return w.claims.Subject()
}

func (w *WSAuthClaimsAdapter) UserID() string {
	return w.claims.UserID()
}

// Role returns the primary role carried by the token.
func (w *WSAuthClaimsAdapter) Role() string {
	roles := w.claims.Roles()
	if len(roles) == 0 {
		return ""
	}
	return roles[0]
}

func (w *WSAuthClaimsAdapter) CanRead(resource string) bool {
	return true
}

func (w *WSAuthClaimsAdapter) CanEdit(resource string) bool {
	return w.claims.HasRole(RoleAdmin)
}

func (w *WSAuthClaimsAdapter) CanCreate(resource string) bool {
	return w.claims.HasRole(RoleAdmin)
}

func (w *WSAuthClaimsAdapter) CanDelete(resource string) bool {
	return w.claims.HasRole(RoleAdmin)
}

func (w *WSAuthClaimsAdapter) HasRole(role string) bool {
	return w.claims.HasRole(role)
}

func (w *WSAuthClaimsAdapter) IsAtLeast(minRole string) bool {
	return RoleIsAtLeast(w.Role(), minRole)
}

// NewWSAuthMiddleware creates a WebSocket authentication middleware wired to
// this authenticator's token service.
func (s *Auther) NewWSAuthMiddleware(config ...router.WSAuthConfig) router.WebSocketMiddleware {
	validator := NewWSTokenValidator(s.tokenService)

	var cfg router.WSAuthConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	cfg.TokenValidator = validator

	return router.NewWSAuth(cfg)
}

// WSAuthClaimsFromContext retrieves the validated claims from a WebSocket
// connection context.
func WSAuthClaimsFromContext(ctx context.Context) (AuthClaims, bool) {
	wsAuthClaims, ok := router.WSAuthClaimsFromContext(ctx)
	if !ok {
		return nil, false
	}

	if adapter, ok := wsAuthClaims.(*WSAuthClaimsAdapter); ok {
		return adapter.claims, true
	}

	return nil, false
}
