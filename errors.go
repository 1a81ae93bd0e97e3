package users

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeTokenMalformed      = "TOKEN_MALFORMED"
	textCodeTokenSignature      = "TOKEN_SIGNATURE"
	textCodeTokenExpired        = "TOKEN_EXPIRED"
	textCodeTokenIssuer         = "TOKEN_ISSUER"
	textCodeIdentityNotFound    = "IDENTITY_NOT_FOUND"
	textCodeIdentityDisabled    = "IDENTITY_DISABLED"
	textCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
)

// ErrTokenMalformed is returned when a token's structure cannot be parsed.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenSignature is returned when the MAC does not match, i.e. possible tampering.
var ErrTokenSignature = goerrors.New("token signature is invalid", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenSignature).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for structurally valid tokens past their TTL.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenIssuer is returned when the token was signed with our key but
// issued under a different issuer name.
var ErrTokenIssuer = goerrors.New("token issuer is invalid", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenIssuer).
	WithCode(goerrors.CodeUnauthorized)

// ErrIdentityNotFound is returned when the subject has no backing record.
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryAuth).
	WithTextCode(textCodeIdentityNotFound).
	WithCode(goerrors.CodeUnauthorized)

// ErrIdentityDisabled is returned when the record exists but access is revoked.
var ErrIdentityDisabled = goerrors.New("identity is disabled", goerrors.CategoryAuth).
	WithTextCode(textCodeIdentityDisabled).
	WithCode(goerrors.CodeUnauthorized)

// ErrProviderUnavailable flags a transient identity store failure. It is NOT
// an authentication failure: the boundary answers 503, never 401.
var ErrProviderUnavailable = goerrors.New("identity store unavailable", goerrors.CategoryOperation).
	WithTextCode(textCodeProviderUnavailable).
	WithCode(http.StatusServiceUnavailable)

// ErrMismatchedHashAndPassword is the uniform bad-credentials error.
var ErrMismatchedHashAndPassword = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(goerrors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned while the login cooldown window is active.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryRateLimit).
	WithTextCode("TOO_MANY_ATTEMPTS").
	WithCode(http.StatusTooManyRequests)

// ErrNotImplemented is returned by operations that are intentionally not
// implemented, e.g. token refresh.
var ErrNotImplemented = goerrors.New("operation not implemented", goerrors.CategoryOperation).
	WithTextCode("NOT_IMPLEMENTED").
	WithCode(http.StatusNotImplemented)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryValidation).
	WithTextCode("EMPTY_VALUE").
	WithCode(goerrors.CodeBadRequest)

func hasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return hasTextCode(err, textCodeTokenExpired) ||
		strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for unparseable tokens
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return hasTextCode(err, textCodeTokenMalformed) ||
		strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsSignatureError will check for MAC mismatches
func IsSignatureError(err error) bool {
	if err == nil {
		return false
	}
	return hasTextCode(err, textCodeTokenSignature) ||
		strings.Contains(err.Error(), "signature is invalid")
}

// IsProviderUnavailable distinguishes infrastructure failures from
// authentication failures.
func IsProviderUnavailable(err error) bool {
	if err == nil {
		return false
	}
	return hasTextCode(err, textCodeProviderUnavailable)
}
