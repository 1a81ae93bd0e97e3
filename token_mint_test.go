package users_test

import (
	"testing"
	"time"

	users "github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMintScopedToken(t *testing.T) {
	ts := newTestTokenService(t, nil, time.Hour)

	identity := TestIdentity{
		IDValue:      uuid.NewString(),
		RolesValue:   []string{users.RoleAdmin},
		EnabledValue: true,
	}

	t.Run("minted token validates and carries the scope claim", func(t *testing.T) {
		issuedAt := time.Now()
		token, expiresAt, err := users.MintScopedToken(ts, identity, users.ScopedTokenOptions{
			TTL:      15 * time.Minute,
			Issuer:   "test-issuer",
			IssuedAt: issuedAt,
			Scopes:   []string{"reports:read"},
		})
		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.True(t, expiresAt.Equal(issuedAt.Add(15*time.Minute)))

		claims, err := ts.Validate(token)
		assert.NoError(t, err)
		assert.Equal(t, identity.IDValue, claims.Subject())
		assert.Equal(t, []string{users.RoleAdmin}, claims.Roles())

		tokenClaims, ok := claims.(*users.TokenClaims)
		if assert.True(t, ok) {
			assert.NotEmpty(t, tokenClaims.RegisteredClaims.ID)
			assert.Equal(t, []string{"reports:read"}, tokenClaims.Scopes)
		}
	})

	t.Run("distinct grants get distinct jti", func(t *testing.T) {
		opts := users.ScopedTokenOptions{TTL: time.Minute, Issuer: "test-issuer"}

		a, _, err := users.MintScopedToken(ts, identity, opts)
		assert.NoError(t, err)
		b, _, err := users.MintScopedToken(ts, identity, opts)
		assert.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("audience restriction", func(t *testing.T) {
		token, _, err := users.MintScopedToken(ts, identity, users.ScopedTokenOptions{
			TTL:      time.Minute,
			Issuer:   "test-issuer",
			Audience: []string{"billing-service"},
		})
		assert.NoError(t, err)

		claims, err := ts.Validate(token)
		assert.NoError(t, err)

		tokenClaims := claims.(*users.TokenClaims)
		assert.Equal(t, "billing-service", tokenClaims.RegisteredClaims.Audience[0])
	})

	t.Run("input validation", func(t *testing.T) {
		_, _, err := users.MintScopedToken(nil, identity, users.ScopedTokenOptions{TTL: time.Minute})
		assert.Error(t, err)

		_, _, err = users.MintScopedToken(ts, nil, users.ScopedTokenOptions{TTL: time.Minute})
		assert.Error(t, err)

		_, _, err = users.MintScopedToken(ts, identity, users.ScopedTokenOptions{})
		assert.Error(t, err)

		_, _, err = users.MintScopedToken(ts, identity, users.ScopedTokenOptions{TTL: -time.Minute})
		assert.Error(t, err)
	})
}
