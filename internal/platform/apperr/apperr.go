// Package apperr defines the error kinds surfaced by the API and the shared
// Echo error handler that maps them to HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error carries a client-facing message together with its kind and an
// optional underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing document: NotFound("patient") -> "patient not found".
func NotFound(what string) error {
	return &Error{Kind: ErrNotFound, Message: what + " not found"}
}

func Conflict(message string, cause error) error {
	return &Error{Kind: ErrConflict, Message: message, Err: cause}
}

func Unauthorized(message string) error {
	return &Error{Kind: ErrUnauthorized, Message: message}
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err is a uniqueness conflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// Response is the JSON body written for every error.
type Response struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Classify maps err to a status code and response body. Messages of
// unclassified errors are never exposed.
func Classify(err error) (int, Response) {
	var ae *Error
	if errors.As(err, &ae) {
		switch {
		case errors.Is(ae.Kind, ErrValidation):
			return http.StatusBadRequest, Response{Message: ae.Message, Code: "validation"}
		case errors.Is(ae.Kind, ErrNotFound):
			return http.StatusNotFound, Response{Message: ae.Message, Code: "not_found"}
		case errors.Is(ae.Kind, ErrConflict):
			return http.StatusBadRequest, Response{Message: ae.Message, Code: "conflict"}
		case errors.Is(ae.Kind, ErrUnauthorized):
			return http.StatusUnauthorized, Response{Message: ae.Message, Code: "unauthorized"}
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		if he.Code >= http.StatusInternalServerError {
			msg = "internal server error"
		}
		return he.Code, Response{Message: msg, Code: codeForStatus(he.Code)}
	}

	return http.StatusInternalServerError, Response{Message: "internal server error", Code: "internal"}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	}
	if status >= http.StatusInternalServerError {
		return "internal"
	}
	return strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
}

// HTTPErrorHandler writes errors as JSON. Server errors are logged through
// the request logger when one is attached, else through fallback.
func HTTPErrorHandler(fallback zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := Classify(err)

		logger := zerolog.Ctx(c.Request().Context())
		if logger.GetLevel() == zerolog.Disabled {
			logger = &fallback
		}
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Int("status", status).Msg("request failed")
		} else {
			logger.Debug().Err(err).Int("status", status).Msg("request rejected")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error().Err(err).Msg("write error response")
		}
	}
}
