package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths are route paths reachable without a token.
var publicPaths = map[string]bool{
	"/health":         true,
	"/health/db":      true,
	"/users/register": true,
	"/users/login":    true,
}

// AuthSkipper reports whether the matched route is public.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}
