package users

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// ErrUsernameTaken is returned when the requested username already exists.
var ErrUsernameTaken = goerrors.New("username already taken", goerrors.CategoryConflict).
	WithTextCode("USERNAME_TAKEN").
	WithCode(goerrors.CodeConflict)

// ErrEmailTaken is returned when the requested email already exists.
var ErrEmailTaken = goerrors.New("email already taken", goerrors.CategoryConflict).
	WithTextCode("EMAIL_TAKEN").
	WithCode(goerrors.CodeConflict)

// CreateUserInput carries the attributes for a new account.
type CreateUserInput struct {
	Username string
	Email    string
	Phone    string
	Password string
	Role     UserRole
}

// UpdateUserInput carries a partial update; nil fields are left untouched.
// Role and Enabled require the caller to hold the admin role.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Phone    *string
	Password *string
	Role     *UserRole
	Enabled  *bool
}

// UserManager implements account CRUD on top of the users repository and
// announces every committed mutation on the event bus. Event publication is
// best-effort: a failed publish is logged, never surfaced to the caller.
type UserManager struct {
	repo       RepositoryManager
	dispatcher *AsyncDispatcher
	logger     Logger
}

// NewUserManager creates a UserManager. dispatcher may be nil, in which case
// mutations happen silently.
func NewUserManager(repo RepositoryManager, dispatcher *AsyncDispatcher) *UserManager {
	return &UserManager{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     defLogger{},
	}
}

func (m *UserManager) WithLogger(l Logger) *UserManager {
	if l != nil {
		m.logger = l
	}
	return m
}

// Register creates a self-service account. The role is always the base role,
// regardless of what the caller asked for; no authorization is required.
func (m *UserManager) Register(ctx context.Context, input CreateUserInput) (*User, error) {
	input.Role = RoleUser
	return m.createUser(ctx, input)
}

// Create creates an account on behalf of an administrator.
func (m *UserManager) Create(ctx context.Context, input CreateUserInput) (*User, error) {
	if err := Requires(ctx, RequireRole(RoleAdmin)); err != nil {
		return nil, err
	}

	if input.Role == "" {
		input.Role = RoleUser
	}

	if !IsValidRole(string(input.Role)) {
		return nil, goerrors.New("invalid role", goerrors.CategoryValidation).
			WithTextCode("INVALID_ROLE").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"role": string(input.Role)})
	}

	return m.createUser(ctx, input)
}

func (m *UserManager) createUser(ctx context.Context, input CreateUserInput) (*User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	if err := m.ensureUnique(ctx, username, email); err != nil {
		return nil, err
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	record := &User{
		Username:     username,
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
		Role:         input.Role,
		Enabled:      true,
	}

	// deterministic id derived from the email, so retried registrations
	// converge on the same record id
	if id, err := hashid.NewUUID(email); err == nil {
		record.ID = id
	}

	created, err := m.repo.Users().Create(ctx, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create user")
	}

	m.dispatch(NewUserEvent(ctx, EventUserCreated, created))

	return created, nil
}

// Update applies a partial update to the account. The subject may update
// their own profile fields; role and enabled changes are admin-only.
func (m *UserManager) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*User, error) {
	if err := m.authorizeSelfOrAdmin(ctx, id); err != nil {
		return nil, err
	}

	if input.Role != nil || input.Enabled != nil {
		if err := Requires(ctx, RequireRole(RoleAdmin)); err != nil {
			return nil, err
		}
	}

	record, err := m.repo.Users().GetByIdentifier(ctx, id.String())
	if err != nil {
		return nil, err
	}

	passwordChanged := false
	enabledBefore := record.Enabled

	if input.Username != nil && *input.Username != record.Username {
		username := strings.TrimSpace(*input.Username)
		taken, err := m.repo.Users().ExistsByUsername(ctx, username)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username")
		}
		if taken {
			return nil, ErrUsernameTaken
		}
		record.Username = username
	}

	if input.Email != nil && *input.Email != record.Email {
		email := strings.TrimSpace(*input.Email)
		taken, err := m.repo.Users().ExistsByEmail(ctx, email)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email")
		}
		if taken {
			return nil, ErrEmailTaken
		}
		record.Email = email
	}

	if input.Phone != nil {
		record.Phone = strings.TrimSpace(*input.Phone)
	}

	if input.Password != nil {
		hash, err := HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		record.PasswordHash = hash
		passwordChanged = true
	}

	if input.Role != nil {
		if !IsValidRole(string(*input.Role)) {
			return nil, goerrors.New("invalid role", goerrors.CategoryValidation).
				WithTextCode("INVALID_ROLE").
				WithCode(goerrors.CodeBadRequest).
				WithMetadata(map[string]any{"role": string(*input.Role)})
		}
		record.Role = *input.Role
	}

	if input.Enabled != nil {
		record.Enabled = *input.Enabled
	}

	updated, err := m.repo.Users().UpdateAccount(ctx, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user")
	}

	m.dispatch(NewUserEvent(ctx, EventUserUpdated, updated))

	if passwordChanged {
		m.dispatch(NewUserEvent(ctx, EventUserPasswordChanged, updated))
	}

	if enabledBefore != updated.Enabled {
		if updated.Enabled {
			m.dispatch(NewUserEvent(ctx, EventUserAccountEnabled, updated))
		} else {
			m.dispatch(NewUserEvent(ctx, EventUserAccountDisabled, updated))
		}
	}

	return updated, nil
}

// SetEnabled flips the account flag through the raw enabled update so the
// false value is never dropped as a zero value. Admin-only.
func (m *UserManager) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*User, error) {
	if err := Requires(ctx, RequireRole(RoleAdmin)); err != nil {
		return nil, err
	}

	record, err := m.repo.Users().GetByIdentifier(ctx, id.String())
	if err != nil {
		return nil, err
	}
	enabledBefore := record.Enabled

	updated, err := m.repo.Users().SetEnabled(ctx, id, enabled)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user")
	}

	m.dispatch(NewUserEvent(ctx, EventUserUpdated, updated))

	if enabledBefore != updated.Enabled {
		if updated.Enabled {
			m.dispatch(NewUserEvent(ctx, EventUserAccountEnabled, updated))
		} else {
			m.dispatch(NewUserEvent(ctx, EventUserAccountDisabled, updated))
		}
	}

	return updated, nil
}

// Delete soft-deletes the account and announces USER_DELETED. Admin-only.
func (m *UserManager) Delete(ctx context.Context, id uuid.UUID) error {
	if err := Requires(ctx, RequireRole(RoleAdmin)); err != nil {
		return err
	}

	record, err := m.repo.Users().GetByIdentifier(ctx, id.String())
	if err != nil {
		return err
	}

	if err := m.repo.Users().SoftDelete(ctx, id); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete user")
	}

	m.dispatch(NewUserEvent(ctx, EventUserDeleted, record))

	return nil
}

// GetByID returns the account. The subject may read their own record; any
// other record requires the admin role.
func (m *UserManager) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	if err := m.authorizeSelfOrAdmin(ctx, id); err != nil {
		return nil, err
	}

	return m.repo.Users().GetByIdentifier(ctx, id.String())
}

// List returns all active accounts. Admin-only.
func (m *UserManager) List(ctx context.Context) ([]*User, error) {
	if err := Requires(ctx, RequireRole(RoleAdmin)); err != nil {
		return nil, err
	}

	return m.repo.Users().List(ctx)
}

// CurrentUser returns the fresh record backing the principal in ctx.
func (m *UserManager) CurrentUser(ctx context.Context) (*User, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, ErrAuthenticationRequired
	}

	return m.repo.Users().GetByIdentifier(ctx, identity.ID())
}

func (m *UserManager) ensureUnique(ctx context.Context, username, email string) error {
	taken, err := m.repo.Users().ExistsByUsername(ctx, username)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username")
	}
	if taken {
		return ErrUsernameTaken
	}

	taken, err = m.repo.Users().ExistsByEmail(ctx, email)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email")
	}
	if taken {
		return ErrEmailTaken
	}

	return nil
}

// authorizeSelfOrAdmin allows the subject to act on their own record and
// anyone holding the admin role to act on any record.
func (m *UserManager) authorizeSelfOrAdmin(ctx context.Context, id uuid.UUID) error {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return ErrAuthenticationRequired
	}

	if identity.ID() == id.String() {
		return nil
	}

	return Requires(ctx, RequireRole(RoleAdmin))
}

func (m *UserManager) dispatch(event UserEvent) {
	if m.dispatcher == nil {
		return
	}
	m.dispatcher.Dispatch(event)
}
