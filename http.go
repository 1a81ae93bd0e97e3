package users

import (
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// ErrorPayload is the JSON body for every error response at the HTTP
// boundary. The message is human-readable only: no token material, no
// stack traces, no internal failure detail.
type ErrorPayload struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

// NewErrorPayload builds the payload with an ISO-8601 UTC timestamp.
func NewErrorPayload(status int, message string) ErrorPayload {
	return ErrorPayload{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
	}
}

// Unauthorized writes the 401 response for unauthenticated access.
func Unauthorized(c router.Context, reason string) error {
	if reason == "" {
		reason = "authentication required"
	}
	return c.JSON(router.StatusUnauthorized, NewErrorPayload(http.StatusUnauthorized, reason))
}

// ServiceUnavailable is the response when the identity store cannot answer.
// A broken store is never reported as an authentication failure.
func ServiceUnavailable(c router.Context) error {
	return c.JSON(http.StatusServiceUnavailable, NewErrorPayload(http.StatusServiceUnavailable, "service temporarily unavailable"))
}

// RespondError maps a domain error to its HTTP rendering using the error's
// category and code.
func RespondError(c router.Context, err error, logger Logger) error {
	if logger == nil {
		logger = defLogger{}
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := statusForError(richErr)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed: %s category=%s details=%s",
			richErr.Message, richErr.Category, print.MaybePrettyJSON(richErr.Metadata))
	} else {
		logger.Debug("request rejected: %s text_code=%s", richErr.Message, richErr.TextCode)
	}

	message := richErr.Message
	if status >= http.StatusInternalServerError {
		// internal failure detail stays in the logs
		message = http.StatusText(status)
	}

	return c.JSON(status, NewErrorPayload(status, message))
}

func statusForError(err *goerrors.Error) int {
	if err.Code >= http.StatusBadRequest && err.Code <= http.StatusNetworkAuthenticationRequired {
		return err.Code
	}

	switch err.Category {
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryOperation:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
