package middleware

import (
	"net/http"

	"medassist/internal/common"
	"medassist/internal/models"

	"github.com/labstack/echo/v4"
)

// RequireRole admits callers holding any of the given roles. It must run
// after Authenticate.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := common.GetCallerFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}
			if !caller.HasRole(roles...) {
				return echo.NewHTTPError(http.StatusForbidden, "User role "+string(caller.Role)+" is not authorized to access this route")
			}
			return next(c)
		}
	}
}
