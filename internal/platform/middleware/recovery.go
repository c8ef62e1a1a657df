package middleware

import (
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const maxStack = 8 << 10

// Recovery turns a handler panic into a 500. The panic is logged through
// the request-scoped logger set by Logger, or through fallback when the
// request carries none.
func Recovery(fallback zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				stack := make([]byte, maxStack)
				stack = stack[:runtime.Stack(stack, false)]

				logger := zerolog.Ctx(c.Request().Context())
				if logger.GetLevel() == zerolog.Disabled {
					logger = &fallback
				}
				logger.Error().
					Str("method", c.Request().Method).
					Str("route", c.Path()).
					Interface("panic", r).
					Bytes("stack", stack).
					Msg("panic recovered")

				err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
			}()
			return next(c)
		}
	}
}
