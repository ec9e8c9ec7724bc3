package middleware

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
)

// APIVersion describes one mounted API prefix.
type APIVersion struct {
	Name       string
	SunsetDate *time.Time
}

// Deprecated reports whether the version has a sunset date.
func (v APIVersion) Deprecated() bool {
	return v.SunsetDate != nil
}

// MountVersion creates the route group for v and stamps every response with
// its version headers. Versions with a sunset date also carry a Warning.
func MountVersion(e *echo.Echo, v APIVersion) *echo.Group {
	group := e.Group("/" + v.Name)
	group.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-API-Version", v.Name)
			if v.Deprecated() {
				h.Set("X-API-Deprecated", "true")
				h.Set("X-API-Sunset", v.SunsetDate.Format(time.RFC3339))
				h.Set("Warning", fmt.Sprintf(`299 medassist "API %s is deprecated and will be removed on %s"`,
					v.Name, v.SunsetDate.Format("2006-01-02")))
			}
			return next(c)
		}
	})
	return group
}
