package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"medassist/internal/common"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit limits requests per client IP, e.g. "120-M".
func RateLimit(formatted string) (echo.MiddlewareFunc, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", formatted, err)
	}

	store := memory.NewStore()
	instance := limiter.New(store, rate)

	limiterMiddleware := stdlib.NewMiddleware(instance,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"message": "Too many requests, please try again later",
			})
		}),
	)

	return echo.WrapMiddleware(limiterMiddleware.Handler), nil
}

// RateLimiter reports whether key has exceeded limit hits within window.
type RateLimiter interface {
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Throttle limits an authenticated caller to limit calls of the named
// action per window. Cache failures let the request through.
func Throttle(cache RateLimiter, action string, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := common.GetCallerFromContext(c.Request().Context())
			if !ok {
				return next(c)
			}

			limited, err := cache.IsRateLimited(c.Request().Context(), action+":"+caller.UserID.String(), limit, window)
			if err != nil {
				log.Warn().Err(err).Str("action", action).Msg("Throttle check failed")
				return next(c)
			}
			if limited {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, please try again later")
			}
			return next(c)
		}
	}
}
