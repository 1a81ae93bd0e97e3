package users

import (
	"context"
	"reflect"
)

// Auther is the default Authenticator implementation. It is stateless with
// respect to shared mutable data: the signing key is immutable after
// construction and borrowed by the token service per operation.
type Auther struct {
	provider     IdentityProvider
	logger       Logger
	tokenService TokenService
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, cfg Config, opts ...TokenServiceOption) *Auther {
	tokenService := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenTTL(),
		cfg.GetIssuer(),
		defLogger{},
		opts...,
	)

	return &Auther{
		provider:     provider,
		logger:       defLogger{},
		tokenService: tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies credentials and issues a signed token for the principal.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error: %v", err)
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", ErrIdentityNotFound
	}

	if !identity.Enabled() {
		s.logger.Warn("Login blocked, identity disabled: %s", identity.ID())
		return "", ErrIdentityDisabled
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("Login token generation error: %v", err)
		return "", err
	}

	return token, nil
}

// Refresh is intentionally unimplemented: a rejected or expired token
// requires the client to authenticate again.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return "", ErrNotImplemented
}

// Logout is a client-side operation for stateless tokens; we only log it so
// the call shows up in audit trails.
func (s *Auther) Logout(ctx context.Context, token string) {
	s.logger.Info("Logging out user")
}

// IdentityFromClaims resolves the authoritative principal for validated
// claims. Roles come from the store, not the token.
func (s *Auther) IdentityFromClaims(ctx context.Context, claims AuthClaims) (Identity, error) {
	if claims == nil {
		return nil, ErrTokenMalformed
	}

	identity, err := s.provider.FindIdentityByIdentifier(ctx, claims.Subject())
	if err != nil {
		s.logger.Error("IdentityFromClaims lookup failed for %s: %v", claims.Subject(), err)
		return nil, err
	}

	return identity, nil
}

var _ Authenticator = (*Auther)(nil)
