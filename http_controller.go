package users

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/nyaruka/phonenumbers"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController exposes the auth and account management JSON API.
type HTTPController struct {
	auther *Auther
	users  *UserManager
	logger Logger
}

// NewHTTPController creates the controller.
func NewHTTPController(auther *Auther, users *UserManager) *HTTPController {
	return &HTTPController{
		auther: auther,
		users:  users,
		logger: defLogger{},
	}
}

func (c *HTTPController) WithLogger(l Logger) *HTTPController {
	if l != nil {
		c.logger = l
	}
	return c
}

// RegisterRoutes mounts the API. The group is expected to be rooted at
// /api/v1 and carry the token middleware; guards for admin-only routes run
// inside the handlers via Requires.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Post("/auth/login", c.Login)
	group.Post("/auth/register", c.Register)
	group.Post("/auth/refresh", c.Refresh)
	group.Post("/auth/logout", c.Logout)

	group.Get("/users", c.ListUsers)
	group.Post("/users", c.CreateUser)
	group.Get("/users/me", c.Me)
	group.Get("/users/:id", c.GetUser)
	group.Put("/users/:id", c.UpdateUser)
	group.Delete("/users/:id", c.DeleteUser)
}

// LoginRequest is the login body. Identifier accepts username, email or id.
type LoginRequest struct {
	Identifier string `json:"identifier" form:"identifier"`
	Password   string `json:"password" form:"password"`
}

func (r LoginRequest) GetIdentifier() string { return r.Identifier }
func (r LoginRequest) GetPassword() string   { return r.Password }

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 200)),
	)
}

// LoginResponse is the successful login body.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

func (c *HTTPController) Login(ctx router.Context) error {
	payload := new(LoginRequest)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return c.validationError(ctx, err)
	}

	token, err := c.auther.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		return RespondError(ctx, err, c.logger)
	}

	return ctx.JSON(router.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
	})
}

// RegisterRequest is the self-service signup body.
type RegisterRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Phone    string `json:"phone" form:"phone"`
	Password string `json:"password" form:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.By(validatePhoneNumber)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (c *HTTPController) Register(ctx router.Context) error {
	payload := new(RegisterRequest)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return c.validationError(ctx, err)
	}

	record, err := c.users.Register(ctx.Context(), CreateUserInput{
		Username: payload.Username,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Password: payload.Password,
	})
	if err != nil {
		return RespondError(ctx, err, c.logger)
	}

	return ctx.JSON(http.StatusCreated, record.ToDTO())
}

// Refresh always answers 501: a rejected or expired token requires the
// client to authenticate again.
func (c *HTTPController) Refresh(ctx router.Context) error {
	return RespondError(ctx, ErrNotImplemented, c.logger)
}

func (c *HTTPController) Logout(ctx router.Context) error {
	c.auther.Logout(ctx.Context(), "")
	return ctx.JSON(router.StatusOK, map[string]string{"status": "logged out"})
}

func (c *HTTPController) ListUsers(ctx router.Context) error {
	records, err := c.users.List(ctx.Context())
	if err != nil {
		return RespondError(ctx, err, c.logger)
	}

	response := make([]UserDTO, 0, len(records))
	for _, record := range records {
		response = append(response, record.ToDTO())
	}

	return ctx.JSON(router.StatusOK, map[string]any{"users": response})
}

// CreateUserRequest is the admin account-creation body.
type CreateUserRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Phone    string `json:"phone" form:"phone"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.By(validatePhoneNumber)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.Role, validation.In(RoleUser, RoleAdmin)),
	)
}

func (c *HTTPController) CreateUser(ctx router.Context) error {
	payload := new(CreateUserRequest)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return c.validationError(ctx, err)
	}

	record, err := c.users.Create(ctx.Context(), CreateUserInput{
		Username: payload.Username,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Password: payload.Password,
		Role:     UserRole(payload.Role),
	})
	if err != nil {
		return RespondError(ctx, err, c.logger)
	}

	return ctx.JSON(http.StatusCreated, record.ToDTO())
}

func (c *HTTPController) Me(ctx router.Context) error {
	record, err := c.users.CurrentUser(ctx.Context())
	if err != nil {
		return RespondError(ctx, err, c.logger)
	}

	return ctx.JSON(router.StatusOK, record.ToDTO())
}

func (c *HTTPController) GetUser(ctx router.Context) error {
	id, err := ParseUserID(ctx.Param("id"))
	if err != nil {
		return c.badRequest(ctx, "invalid user id")
	}

	record, err := c.users.GetByID(ctx.Context(), id)
	if err != nil {
		return RespondError(ctx, err, c.logger)
	}

	return ctx.JSON(router.StatusOK, record.ToDTO())
}

// UpdateUserRequest is a partial update body; absent fields are untouched.
type UpdateUserRequest struct {
	Username *string `json:"username" form:"username"`
	Email    *string `json:"email" form:"email"`
	Phone    *string `json:"phone" form:"phone"`
	Password *string `json:"password" form:"password"`
	Role     *string `json:"role" form:"role"`
	Enabled  *bool   `json:"enabled" form:"enabled"`
}

func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.NilOrNotEmpty, validation.Length(3, 100)),
		validation.Field(&r.Email, validation.NilOrNotEmpty, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.By(validateOptionalPhoneNumber)),
		validation.Field(&r.Password, validation.NilOrNotEmpty, validation.Length(8, 100)),
		validation.Field(&r.Role, validation.NilOrNotEmpty, validation.In(RoleUser, RoleAdmin)),
	)
}

func (c *HTTPController) UpdateUser(ctx router.Context) error {
	id, err := ParseUserID(ctx.Param("id"))
	if err != nil {
		return c.badRequest(ctx, "invalid user id")
	}

	payload := new(UpdateUserRequest)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return c.validationError(ctx, err)
	}

	input := UpdateUserInput{
		Username: payload.Username,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Password: payload.Password,
		Enabled:  payload.Enabled,
	}

	if payload.Role != nil {
		role := UserRole(*payload.Role)
		input.Role = &role
	}

	record, err := c.users.Update(ctx.Context(), id, input)
	if err != nil {
		return RespondError(ctx, err, c.logger)
	}

	return ctx.JSON(router.StatusOK, record.ToDTO())
}

func (c *HTTPController) DeleteUser(ctx router.Context) error {
	id, err := ParseUserID(ctx.Param("id"))
	if err != nil {
		return c.badRequest(ctx, "invalid user id")
	}

	if err := c.users.Delete(ctx.Context(), id); err != nil {
		return RespondError(ctx, err, c.logger)
	}

	return ctx.JSON(http.StatusNoContent, nil)
}

func (c *HTTPController) badRequest(ctx router.Context, message string) error {
	return ctx.JSON(router.StatusBadRequest, NewErrorPayload(http.StatusBadRequest, message))
}

func (c *HTTPController) validationError(ctx router.Context, err error) error {
	c.logger.Debug("payload validation failed: %v", err)
	return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
		WithCode(goerrors.CodeBadRequest), c.logger)
}

func validatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	return checkPhoneNumber(s)
}

func validateOptionalPhoneNumber(value any) error {
	s, ok := value.(*string)
	if !ok || s == nil || *s == "" {
		return nil
	}
	return checkPhoneNumber(*s)
}

func checkPhoneNumber(s string) error {
	num, err := phonenumbers.Parse(s, "US")
	if err != nil {
		return err
	}
	if !phonenumbers.IsValidNumber(num) {
		return goerrors.New("invalid phone number", goerrors.CategoryValidation)
	}
	return nil
}
