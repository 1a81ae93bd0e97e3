package tokenware

import (
	"github.com/goliatone/go-router"
	users "github.com/goliatone/go-users"
)

// Config configures the token gate. The gate itself never rejects a request:
// any failure to establish a principal leaves the request anonymous and hands
// it to the next handler. Route guards decide whether anonymous is acceptable.
type Config struct {
	// Filter skips the gate entirely when it returns true.
	Filter func(router.Context) bool

	// SuccessHandler runs after the gate; defaults to ctx.Next().
	SuccessHandler router.HandlerFunc

	// Validator validates raw tokens. Required unless key material is
	// configured, in which case a key-based validator is built.
	Validator users.TokenValidator

	// Provider resolves the token subject to the authoritative principal.
	// Required: roles embedded in the token are never used for authorization.
	Provider users.IdentityProvider

	// ContextKey is the router locals key for validated claims.
	ContextKey string

	// IdentityKey is the router locals key for the resolved principal.
	IdentityKey string

	// TokenLookup is a comma-separated extractor list, e.g.
	// "header:Authorization,cookie:token,query:auth_token".
	TokenLookup string

	// AuthScheme is the expected header scheme, default "Bearer".
	AuthScheme string

	Logger users.Logger

	// Key material for the built-in validator, used when Validator is nil.
	SigningKey  SigningKey
	SigningKeys map[string]SigningKey
	JWKSetURLs  []string
}

func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := getDefaultConfig(config...)

		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			// already populated by an earlier gate; do not clobber
			if _, ok := users.IdentityFromContext(ctx.Context()); ok {
				return cfg.SuccessHandler(ctx)
			}

			raw, err := extractRawToken(ctx, cfg.extractors())
			if raw == "" || err != nil {
				// no credential offered: anonymous without touching the store
				return anonymous(ctx, cfg, "no token presented")
			}

			claims, err := cfg.Validator.Validate(raw)
			if err != nil {
				cfg.Logger.Debug("token rejected: %v", err)
				return anonymous(ctx, cfg, "token rejected")
			}

			identity, err := cfg.Provider.FindIdentityByIdentifier(ctx.Context(), claims.Subject())
			if err != nil {
				if users.IsProviderUnavailable(err) {
					cfg.Logger.Error("identity store unavailable: %v", err)
					return users.ServiceUnavailable(ctx)
				}
				cfg.Logger.Debug("principal rejected for subject %s: %v", claims.Subject(), err)
				return anonymous(ctx, cfg, "principal rejected")
			}

			ctx.Locals(cfg.ContextKey, claims)
			ctx.Locals(cfg.IdentityKey, identity)

			stdCtx := users.WithClaims(ctx.Context(), claims)
			stdCtx = users.WithIdentity(stdCtx, identity)
			ctx.SetContext(stdCtx)

			return cfg.SuccessHandler(ctx)
		}
	}
}

// anonymous clears any partial state and lets the request through without a
// principal. The gate logs the reason; emitting 401 is the guards' job.
func anonymous(ctx router.Context, cfg Config, reason string) error {
	ctx.Locals(cfg.ContextKey, nil)
	ctx.Locals(cfg.IdentityKey, nil)
	cfg.Logger.Debug("request proceeds anonymous: %s", reason)
	return cfg.SuccessHandler(ctx)
}

func getDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.Provider == nil {
		panic("USERS: token middleware configuration: Provider is required.")
	}

	if cfg.Validator == nil {
		if cfg.SigningKey.Key == nil && len(cfg.SigningKeys) == 0 && len(cfg.JWKSetURLs) == 0 {
			panic("USERS: token middleware configuration: Validator or key material is required.")
		}
		cfg.Validator = newKeyfuncValidator(cfg)
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.IdentityKey == "" {
		cfg.IdentityKey = "identity"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}

	return cfg
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
