package middleware

import (
	"net/http"
	"time"

	"medassist/internal/common"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// AuditWrites records every state-changing request with the caller, the
// outcome and the latency. Reads are not audited.
func AuditWrites() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			method := c.Request().Method
			if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = common.ToHTTPError(err).Code
			}

			var event *zerolog.Event
			if status >= http.StatusInternalServerError {
				event = log.Error()
			} else {
				event = log.Info()
			}
			event = event.
				Str("method", method).
				Str("route", c.Path()).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Int("status", status).
				Dur("latency", time.Since(start))
			if caller, ok := common.GetCallerFromContext(c.Request().Context()); ok {
				event = event.Str("user_id", caller.UserID.String()).Str("role", string(caller.Role))
			}
			event.Msg("audit")

			return err
		}
	}
}
