package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

const HeaderAdminToken = "X-Admin-Token"

// AdminToken guards operator endpoints with a shared secret. An empty
// configured token rejects every request.
func AdminToken(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := c.Request().Header.Get(HeaderAdminToken)
			if got == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing admin token")
			}
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "Invalid admin token")
			}
			return next(c)
		}
	}
}
