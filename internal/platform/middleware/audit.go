package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medlab/medlab/internal/platform/auth"
)

// Audit logs an "audit" event for every request that changes a record:
// who did it, to which resource, and with what outcome.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			action := methodToAction(req.Method)
			if action == "" {
				return next(c)
			}

			err := next(c)

			rid, _ := c.Get("request_id").(string)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", rid).
				Str("user_id", auth.UserIDFromContext(req.Context())).
				Str("resource", resourceFromPath(req.URL.Path)).
				Str("record_id", c.Param("id")).
				Str("action", action).
				Str("path", req.URL.Path).
				Bool("ok", err == nil && status < http.StatusBadRequest).
				Msg("record_change")

			return err
		}
	}
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	}
	return ""
}

// resourceFromPath returns the first path segment: /lab/123 -> lab.
func resourceFromPath(path string) string {
	seg, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if seg == "" {
		return "unknown"
	}
	return seg
}
