package users

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// ErrUnableToFindClaims is returned when no validated token lives in locals.
var ErrUnableToFindClaims = goerrors.New("unable to find claims in context", goerrors.CategoryAuth).
	WithTextCode("CLAIMS_NOT_FOUND").
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToDecodeClaims is returned when the locals value has an
// unexpected shape.
var ErrUnableToDecodeClaims = goerrors.New("unable to decode claims", goerrors.CategoryAuth).
	WithTextCode("CLAIMS_DECODE").
	WithCode(goerrors.CodeUnauthorized)

// GetClaims reads the validated token claims the middleware stored in fiber
// locals under key. Accepts either the claims value itself or a parsed
// *jwt.Token for apps that mount third-party JWT middleware.
func GetClaims(c *fiber.Ctx, key string) (AuthClaims, error) {
	raw := c.Locals(key)
	if raw == nil {
		return nil, ErrUnableToFindClaims
	}

	switch v := raw.(type) {
	case AuthClaims:
		return v, nil
	case *jwt.Token:
		if claims, ok := v.Claims.(*TokenClaims); ok {
			return claims, nil
		}
		if claims, ok := v.Claims.(jwt.MapClaims); ok {
			return claimsFromMap(claims)
		}
	}

	return nil, ErrUnableToDecodeClaims
}

// GetUserID returns the subject of the validated token in locals.
func GetUserID(c *fiber.Ctx, key string) (string, error) {
	claims, err := GetClaims(c, key)
	if err != nil {
		return "", err
	}
	return claims.Subject(), nil
}

func claimsFromMap(m jwt.MapClaims) (AuthClaims, error) {
	claims := &TokenClaims{}

	if sub, err := m.GetSubject(); err == nil {
		claims.RegisteredClaims.Subject = sub
	}

	if iss, err := m.GetIssuer(); err == nil {
		claims.RegisteredClaims.Issuer = iss
	}

	if exp, err := m.GetExpirationTime(); err == nil {
		claims.RegisteredClaims.ExpiresAt = exp
	}

	if iat, err := m.GetIssuedAt(); err == nil {
		claims.RegisteredClaims.IssuedAt = iat
	}

	if raw, ok := m["roles"]; ok {
		if roles, ok := raw.([]any); ok {
			for _, r := range roles {
				if s, ok := r.(string); ok {
					claims.RoleClaims = append(claims.RoleClaims, s)
				}
			}
		}
	}

	if claims.RegisteredClaims.Subject == "" {
		return nil, ErrUnableToDecodeClaims
	}

	return claims, nil
}
