// Package apperr defines the error taxonomy shared by all services and the
// Echo error handler that maps it onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Kind classifies a service error for HTTP mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindSelfModification
	KindTransient
)

// Error is the error type returned by services. Message is safe to show to
// clients; Err (if set) carries the underlying cause for logs only.
type Error struct {
	Kind    Kind
	Message string
	Issues  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a 400 error with optional per-field issues.
func Validation(msg string, issues map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Issues: issues}
}

// Validationf builds a 400 error from a format string.
func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Unauthenticated builds a 401 error.
func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

// Forbidden builds a 403 error.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// NotFound builds a 404 error. The message names the entity kind only, so
// callers cannot distinguish a missing row from one outside their scope.
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

// Conflict builds a 409 error naming the conflicting field.
func Conflict(field, msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg, Issues: map[string]string{field: msg}}
}

// SelfModification builds the 403 returned when a user targets their own
// account with an administrative operation.
func SelfModification(msg string) *Error {
	return &Error{Kind: KindSelfModification, Message: msg}
}

// Transient builds a 502 error for an upstream dependency that failed after
// retries.
func Transient(msg string, err error) *Error {
	return &Error{Kind: KindTransient, Message: msg, Err: err}
}

// Internal wraps an unexpected error. The client sees a generic message.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

func (k Kind) status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden, KindSelfModification:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTransient:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error  string            `json:"error"`
	Issues map[string]string `json:"issues,omitempty"`
}

// HTTPErrorHandler returns an echo.HTTPErrorHandler that renders *Error and
// *echo.HTTPError values as {error, issues?} JSON. Unknown errors become a
// generic 500 and are logged with their cause.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := errorBody{Error: "internal server error"}

		var ae *Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			status = ae.Kind.status()
			body.Error = ae.Message
			body.Issues = ae.Issues
			if ae.Kind == KindInternal || ae.Kind == KindTransient {
				rid, _ := c.Get("request_id").(string)
				logger.Error().Err(err).Str("request_id", rid).Msg("request failed")
			}
		case errors.As(err, &he):
			status = he.Code
			body.Error = fmt.Sprintf("%v", he.Message)
		default:
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).Str("request_id", rid).Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}
