package users_test

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	users "github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func makeStoredUser(t *testing.T, password string) *users.User {
	t.Helper()

	hash, err := users.HashPassword(password)
	assert.NoError(t, err)

	return &users.User{
		ID:           uuid.New(),
		Role:         users.RoleUser,
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		Enabled:      true,
	}
}

func TestVerifyIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("Successful verification", func(t *testing.T) {
		store := new(MockUserTracker)
		user := makeStoredUser(t, "s3cret!")

		store.On("GetByIdentifier", ctx, "alice@example.com").Return(user, nil)
		store.On("TrackSuccessfulLogin", ctx, user).Return(nil)

		provider := users.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "alice@example.com", "s3cret!")
		assert.NoError(t, err)
		assert.Equal(t, user.ID.String(), identity.ID())
		assert.Equal(t, "alice", identity.Username())
		assert.Equal(t, []string{users.RoleUser}, identity.Roles())
		assert.True(t, identity.Enabled())

		store.AssertExpectations(t)
		store.AssertNotCalled(t, "TrackAttemptedLogin", mock.Anything, mock.Anything)
	})

	t.Run("Invalid password", func(t *testing.T) {
		store := new(MockUserTracker)
		user := makeStoredUser(t, "s3cret!")

		store.On("GetByIdentifier", ctx, "alice@example.com").Return(user, nil)
		store.On("TrackAttemptedLogin", ctx, user).Return(nil)

		provider := users.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "alice@example.com", "wrong")
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, users.ErrMismatchedHashAndPassword)

		store.AssertExpectations(t)
	})

	t.Run("User not found reads as bad credentials", func(t *testing.T) {
		store := new(MockUserTracker)

		store.On("GetByIdentifier", ctx, "ghost@example.com").
			Return(nil, goerrors.New("record not found", goerrors.CategoryNotFound))

		provider := users.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "ghost@example.com", "whatever")
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, users.ErrMismatchedHashAndPassword)
		assert.False(t, users.IsProviderUnavailable(err))
	})

	t.Run("Disabled account", func(t *testing.T) {
		store := new(MockUserTracker)
		user := makeStoredUser(t, "s3cret!")
		user.Enabled = false

		store.On("GetByIdentifier", ctx, "alice@example.com").Return(user, nil)

		provider := users.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "alice@example.com", "s3cret!")
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, users.ErrIdentityDisabled)
	})

	t.Run("Too many login attempts", func(t *testing.T) {
		store := new(MockUserTracker)
		user := makeStoredUser(t, "s3cret!")
		attemptAt := time.Now().Add(-time.Hour)
		user.LoginAttempts = users.MaxLoginAttempts + 1
		user.LoginAttemptAt = &attemptAt

		store.On("GetByIdentifier", ctx, "alice@example.com").Return(user, nil)

		provider := users.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "alice@example.com", "s3cret!")
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, users.ErrTooManyLoginAttempts)
	})

	t.Run("Login attempts cooldown expired", func(t *testing.T) {
		store := new(MockUserTracker)
		user := makeStoredUser(t, "s3cret!")
		attemptAt := time.Now().Add(-48 * time.Hour)
		user.LoginAttempts = users.MaxLoginAttempts + 1
		user.LoginAttemptAt = &attemptAt

		store.On("GetByIdentifier", ctx, "alice@example.com").Return(user, nil)
		store.On("TrackSuccessfulLogin", ctx, user).Return(nil)

		provider := users.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "alice@example.com", "s3cret!")
		assert.NoError(t, err)
		assert.Equal(t, user.ID.String(), identity.ID())
		assert.Equal(t, 0, user.LoginAttempts)
	})

	t.Run("Store failure is not an authentication failure", func(t *testing.T) {
		store := new(MockUserTracker)

		store.On("GetByIdentifier", ctx, "alice@example.com").
			Return(nil, goerrors.New("connection refused", goerrors.CategoryInternal))

		provider := users.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "alice@example.com", "s3cret!")
		assert.Nil(t, identity)
		assert.Error(t, err)
		assert.True(t, users.IsProviderUnavailable(err))
		assert.NotErrorIs(t, err, users.ErrMismatchedHashAndPassword)
	})
}

func TestFindIdentityByIdentifier(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		store := new(MockUserTracker)
		user := makeStoredUser(t, "s3cret!")
		user.Role = users.RoleAdmin

		store.On("GetByIdentifier", ctx, user.ID.String()).Return(user, nil)

		provider := users.NewUserProvider(store)

		identity, err := provider.FindIdentityByIdentifier(ctx, user.ID.String())
		assert.NoError(t, err)
		assert.Equal(t, user.ID.String(), identity.ID())
		assert.Equal(t, []string{users.RoleAdmin}, identity.Roles())
	})

	t.Run("Not found", func(t *testing.T) {
		store := new(MockUserTracker)

		store.On("GetByIdentifier", ctx, "missing").
			Return(nil, goerrors.New("record not found", goerrors.CategoryNotFound))

		provider := users.NewUserProvider(store)

		identity, err := provider.FindIdentityByIdentifier(ctx, "missing")
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, users.ErrIdentityNotFound)
	})

	t.Run("Disabled", func(t *testing.T) {
		store := new(MockUserTracker)
		user := makeStoredUser(t, "s3cret!")
		user.Enabled = false

		store.On("GetByIdentifier", ctx, user.ID.String()).Return(user, nil)

		provider := users.NewUserProvider(store)

		identity, err := provider.FindIdentityByIdentifier(ctx, user.ID.String())
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, users.ErrIdentityDisabled)
	})

	t.Run("Store failure", func(t *testing.T) {
		store := new(MockUserTracker)

		store.On("GetByIdentifier", ctx, "anything").
			Return(nil, goerrors.New("timeout", goerrors.CategoryInternal))

		provider := users.NewUserProvider(store)

		identity, err := provider.FindIdentityByIdentifier(ctx, "anything")
		assert.Nil(t, identity)
		assert.True(t, users.IsProviderUnavailable(err))
	})
}
