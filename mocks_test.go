package users_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	users "github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockUserTracker implements users.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*users.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *users.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSuccessfulLogin(ctx context.Context, user *users.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockIdentityProvider implements users.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (users.Identity, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(users.Identity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (users.Identity, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(users.Identity), args.Error(1)
}

// TestIdentity implements users.Identity
type TestIdentity struct {
	IDValue       string
	UsernameValue string
	EmailValue    string
	RolesValue    []string
	EnabledValue  bool
}

func (t TestIdentity) ID() string       { return t.IDValue }
func (t TestIdentity) Username() string { return t.UsernameValue }
func (t TestIdentity) Email() string    { return t.EmailValue }
func (t TestIdentity) Roles() []string  { return t.RolesValue }
func (t TestIdentity) Enabled() bool    { return t.EnabledValue }

// testConfig implements users.Config
type testConfig struct {
	key    string
	ttl    time.Duration
	issuer string
}

func (c testConfig) GetSigningKey() string      { return c.key }
func (c testConfig) GetSigningMethod() string   { return "HS256" }
func (c testConfig) GetContextKey() string      { return "user" }
func (c testConfig) GetTokenTTL() time.Duration { return c.ttl }
func (c testConfig) GetTokenLookup() string     { return "header:Authorization" }
func (c testConfig) GetAuthScheme() string      { return "Bearer" }
func (c testConfig) GetIssuer() string          { return c.issuer }

// capturePublisher implements users.EventPublisher, forwarding events to a
// channel so tests can observe async publication.
type capturePublisher struct {
	events chan users.UserEvent
	err    error
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{
		events: make(chan users.UserEvent, 16),
	}
}

func (p *capturePublisher) Publish(ctx context.Context, event users.UserEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events <- event
	return nil
}

func (p *capturePublisher) wait(timeout time.Duration) (users.UserEvent, bool) {
	select {
	case event := <-p.events:
		return event, true
	case <-time.After(timeout):
		return users.UserEvent{}, false
	}
}

// MockUsers implements users.Users; the embedded repository interface covers
// the methods a given test never touches.
type MockUsers struct {
	repository.Repository[*users.User]
	mock.Mock
}

func (m *MockUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*users.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, record *users.User, criteria ...repository.InsertCriteria) (*users.User, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *users.User, criteria ...repository.InsertCriteria) (*users.User, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUsers) Update(ctx context.Context, record *users.User, criteria ...repository.UpdateCriteria) (*users.User, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUsers) UpdateAccount(ctx context.Context, record *users.User) (*users.User, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUsers) UpdateAccountTx(ctx context.Context, tx bun.IDB, record *users.User) (*users.User, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*users.User, error) {
	args := m.Called(ctx, id, enabled)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUsers) SetEnabledTx(ctx context.Context, tx bun.IDB, id uuid.UUID, enabled bool) (*users.User, error) {
	args := m.Called(ctx, tx, id, enabled)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUsers) List(ctx context.Context) ([]*users.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*users.User), args.Error(1)
}

func (m *MockUsers) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUsers) SoftDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockUsers) TrackAttemptedLogin(ctx context.Context, user *users.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsers) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *users.User) error {
	args := m.Called(ctx, tx, user)
	return args.Error(0)
}

func (m *MockUsers) TrackSuccessfulLogin(ctx context.Context, user *users.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsers) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *users.User) error {
	args := m.Called(ctx, tx, user)
	return args.Error(0)
}

// jsonRecorder captures the response written by error helpers; the embedded
// interface covers the router.Context surface those helpers never touch.
type jsonRecorder struct {
	router.Context
	status int
	body   any
}

func (r *jsonRecorder) JSON(code int, val any) error {
	r.status = code
	r.body = val
	return nil
}

// mockRepoManager implements users.RepositoryManager
type mockRepoManager struct {
	users *MockUsers
}

func (m *mockRepoManager) Validate() error { return nil }
func (m *mockRepoManager) MustValidate()   {}

func (m *mockRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *mockRepoManager) Users() users.Users { return m.users }
