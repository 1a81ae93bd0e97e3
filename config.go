package users

import (
	"log"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/joeshaw/envdecode"
)

// EnvConfig is the environment-driven Config implementation. Defaults are
// provided via struct tags; the signing key has none and must be set.
type EnvConfig struct {
	SigningKey    string        `env:"AUTH_SIGNING_KEY,required"`
	SigningMethod string        `env:"AUTH_SIGNING_METHOD,default=HS256"`
	ContextKey    string        `env:"AUTH_CONTEXT_KEY,default=user"`
	TokenTTL      time.Duration `env:"AUTH_TOKEN_TTL,default=24h"`
	TokenLookup   string        `env:"AUTH_TOKEN_LOOKUP,default=header:Authorization"`
	AuthScheme    string        `env:"AUTH_SCHEME,default=Bearer"`
	Issuer        string        `env:"AUTH_ISSUER,default=go-users"`
}

// NewEnvConfig populates the config from the environment.
func NewEnvConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := envdecode.Decode(cfg); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustEnvConfig is NewEnvConfig or die. A service without a signing key or a
// sane TTL must not come up.
func MustEnvConfig() *EnvConfig {
	cfg, err := NewEnvConfig()
	if err != nil {
		log.Panicf("users: config error: %v", err)
	}
	return cfg
}

func validateConfig(cfg *EnvConfig) error {
	if cfg.SigningKey == "" {
		return goerrors.New("signing key must not be empty", goerrors.CategoryValidation)
	}

	if cfg.TokenTTL <= 0 {
		return goerrors.New("token TTL must be positive", goerrors.CategoryValidation)
	}

	return nil
}

func (c *EnvConfig) GetSigningKey() string      { return c.SigningKey }
func (c *EnvConfig) GetSigningMethod() string   { return c.SigningMethod }
func (c *EnvConfig) GetContextKey() string      { return c.ContextKey }
func (c *EnvConfig) GetTokenTTL() time.Duration { return c.TokenTTL }
func (c *EnvConfig) GetTokenLookup() string     { return c.TokenLookup }
func (c *EnvConfig) GetAuthScheme() string      { return c.AuthScheme }
func (c *EnvConfig) GetIssuer() string          { return c.Issuer }

var _ Config = (*EnvConfig)(nil)
