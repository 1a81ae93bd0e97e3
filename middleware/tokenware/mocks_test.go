package tokenware_test

import (
	"context"

	"github.com/goliatone/go-router"
	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/mock"
)

// fakeContext is a stateful router.Context for middleware tests. Request
// values come from the maps; writes are recorded for assertions.
type fakeContext struct {
	HeadersM map[string]string
	QueriesM map[string]string
	ParamsM  map[string]string
	CookiesM map[string]string
	LocalsM  map[any]any

	stdCtx     context.Context
	NextCalled bool
	JSONStatus int
	JSONBody   any
}

func newFakeContext() *fakeContext {
	return &fakeContext{
		HeadersM: map[string]string{},
		QueriesM: map[string]string{},
		ParamsM:  map[string]string{},
		CookiesM: map[string]string{},
		LocalsM:  map[any]any{},
		stdCtx:   context.Background(),
	}
}

func (f *fakeContext) Next() error {
	f.NextCalled = true
	return nil
}

func (f *fakeContext) Context() context.Context       { return f.stdCtx }
func (f *fakeContext) SetContext(ctx context.Context) { f.stdCtx = ctx }

func (f *fakeContext) Path() string   { return "/" }
func (f *fakeContext) Method() string { return "GET" }
func (f *fakeContext) Body() []byte   { return nil }

func (f *fakeContext) Status(code int) router.Context {
	f.JSONStatus = code
	return f
}

func (f *fakeContext) SendString(string) error { return nil }
func (f *fakeContext) Send([]byte) error       { return nil }

func (f *fakeContext) JSON(code int, val any) error {
	f.JSONStatus = code
	f.JSONBody = val
	return nil
}

func (f *fakeContext) NoContent(code int) error {
	f.JSONStatus = code
	return nil
}

func (f *fakeContext) Render(string, any, ...string) error { return nil }

func (f *fakeContext) Redirect(string, ...int) error                            { return nil }
func (f *fakeContext) RedirectToRoute(string, router.ViewContext, ...int) error { return nil }
func (f *fakeContext) RedirectBack(string, ...int) error                        { return nil }

func (f *fakeContext) SetHeader(key, val string) router.Context {
	f.HeadersM[key] = val
	return f
}

func (f *fakeContext) Header(key string) string { return f.HeadersM[key] }

func (f *fakeContext) Get(key string, def any) any {
	if v, ok := f.LocalsM[key]; ok {
		return v
	}
	return def
}

func (f *fakeContext) GetBool(_ string, def bool) bool { return def }
func (f *fakeContext) GetInt(_ string, def int) int    { return def }
func (f *fakeContext) Set(key string, val any)         { f.LocalsM[key] = val }

func (f *fakeContext) Bind(any) error         { return nil }
func (f *fakeContext) BindJSON(any) error     { return nil }
func (f *fakeContext) BindXML(any) error      { return nil }
func (f *fakeContext) BindQuery(any) error    { return nil }
func (f *fakeContext) CookieParser(any) error { return nil }

func (f *fakeContext) Cookie(*router.Cookie) {}

func (f *fakeContext) Cookies(key string, def ...string) string {
	if v, ok := f.CookiesM[key]; ok {
		return v
	}
	if len(def) > 0 {
		return def[0]
	}
	return ""
}

func (f *fakeContext) Param(key string, def ...string) string {
	if v, ok := f.ParamsM[key]; ok {
		return v
	}
	if len(def) > 0 {
		return def[0]
	}
	return ""
}

func (f *fakeContext) ParamsInt(_ string, def int) int { return def }

func (f *fakeContext) Query(key string, def string) string {
	if v, ok := f.QueriesM[key]; ok {
		return v
	}
	return def
}

func (f *fakeContext) QueryInt(_ string, def int) int { return def }
func (f *fakeContext) Queries() map[string]string     { return f.QueriesM }

func (f *fakeContext) GetString(key string, def string) string {
	if v, ok := f.HeadersM[key]; ok {
		return v
	}
	return def
}

func (f *fakeContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		f.LocalsM[key] = value[0]
		return value[0]
	}
	return f.LocalsM[key]
}

func (f *fakeContext) OriginalURL() string { return "/" }
func (f *fakeContext) OnNext(func() error) {}
func (f *fakeContext) Referer() string     { return "" }

var _ router.Context = (*fakeContext)(nil)

// mockProvider implements users.IdentityProvider
type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) VerifyIdentity(ctx context.Context, identifier, password string) (users.Identity, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(users.Identity), args.Error(1)
}

func (m *mockProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (users.Identity, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(users.Identity), args.Error(1)
}

// stubIdentity implements users.Identity
type stubIdentity struct {
	id      string
	roles   []string
	enabled bool
}

func (s stubIdentity) ID() string       { return s.id }
func (s stubIdentity) Username() string { return s.id }
func (s stubIdentity) Email() string    { return s.id + "@example.com" }
func (s stubIdentity) Roles() []string  { return s.roles }
func (s stubIdentity) Enabled() bool    { return s.enabled }
