package tokenware

import (
	"fmt"
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	users "github.com/goliatone/go-users"
)

// SigningKey holds a verification key and the algorithm it expects.
type SigningKey struct {
	JWTAlg string
	Key    any
}

// newKeyfuncValidator builds a validator from configured key material: a
// single key, a kid-keyed set, remote JWK Set URLs, or any mix of those.
func newKeyfuncValidator(cfg Config) users.TokenValidator {
	var kf jwt.Keyfunc

	if len(cfg.SigningKeys) > 0 || len(cfg.JWKSetURLs) > 0 {
		var givenKeys map[string]keyfunc.GivenKey
		if cfg.SigningKeys != nil {
			givenKeys = make(map[string]keyfunc.GivenKey, len(cfg.SigningKeys))
			for kid, key := range cfg.SigningKeys {
				givenKeys[kid] = keyfunc.NewGivenCustom(key.Key, keyfunc.GivenKeyOptions{
					Algorithm: key.JWTAlg,
				})
			}
		}

		if len(cfg.JWKSetURLs) > 0 {
			var err error
			kf, err = multiKeyfunc(givenKeys, cfg.JWKSetURLs)
			if err != nil {
				panic("USERS: failed to create keyfunc from JWK Set URL: " + err.Error())
			}
		} else {
			kf = keyfunc.NewGiven(givenKeys).Keyfunc
		}
	} else {
		kf = signingKeyFunc(cfg.SigningKey)
	}

	return users.TokenValidatorFunc(func(tokenString string) (users.AuthClaims, error) {
		token, err := jwt.ParseWithClaims(tokenString, &users.TokenClaims{}, kf)
		if err != nil {
			switch {
			case goerrors.Is(err, jwt.ErrTokenExpired):
				return nil, users.ErrTokenExpired
			case goerrors.Is(err, jwt.ErrTokenSignatureInvalid):
				return nil, users.ErrTokenSignature
			default:
				return nil, goerrors.Wrap(err, users.ErrTokenMalformed.Category, users.ErrTokenMalformed.Message).
					WithTextCode(users.ErrTokenMalformed.TextCode)
			}
		}

		claims, ok := token.Claims.(*users.TokenClaims)
		if !ok || !token.Valid {
			return nil, users.ErrTokenMalformed
		}

		return claims, nil
	})
}

func multiKeyfunc(givenKeys map[string]keyfunc.GivenKey, jwkSetURLs []string) (jwt.Keyfunc, error) {
	opts := keyfuncOptions(givenKeys)
	m := make(map[string]keyfunc.Options, len(jwkSetURLs))
	for _, url := range jwkSetURLs {
		m[url] = opts
	}
	multi, err := keyfunc.GetMultiple(m, keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get JWK Set URLs: %w", err)
	}
	return multi.Keyfunc, nil
}

func keyfuncOptions(givenKeys map[string]keyfunc.GivenKey) keyfunc.Options {
	return keyfunc.Options{
		GivenKeys: givenKeys,
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWK Set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}
}

func signingKeyFunc(key SigningKey) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if key.JWTAlg != "" {
			alg, ok := token.Header["alg"].(string)
			if !ok {
				return nil, fmt.Errorf("unexpected JWT signing method: expected %q got: missing json type", key.JWTAlg)
			}
			if alg != key.JWTAlg {
				return nil, fmt.Errorf("unexpected jwt signing method: expected: %q: got: %q", key.JWTAlg, alg)
			}
		}
		return key.Key, nil
	}
}
