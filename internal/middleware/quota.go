package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"medassist/internal/availability"
	"medassist/internal/common"
	"medassist/internal/config"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// LimitsResolver returns the feature limits that apply to a user.
type LimitsResolver interface {
	ActivePlanLimits(ctx context.Context, userID uuid.UUID) (config.FeatureLimits, error)
}

// SearchCounter reads and increments a user's search count for one day.
type SearchCounter interface {
	SearchCount(ctx context.Context, userID uuid.UUID, day string) (int64, error)
	IncrementSearchCount(ctx context.Context, userID uuid.UUID, day string) (int64, error)
}

// SearchQuota counts authenticated searches per calendar day and rejects
// requests beyond the caller's plan allowance. Anonymous requests and a
// non-positive allowance are not counted. A search is charged only once the
// handler has answered it successfully, so rejected queries stay free.
func SearchQuota(limits LimitsResolver, cache SearchCounter, clock availability.Clock) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			caller, ok := common.GetCallerFromContext(ctx)
			if !ok || caller.IsAdmin() {
				return next(c)
			}

			plan, err := limits.ActivePlanLimits(ctx, caller.UserID)
			if err != nil {
				log.Warn().Err(err).Str("user_id", caller.UserID.String()).Msg("Failed to resolve plan limits")
				return next(c)
			}
			if plan.MaxSearchesPerDay <= 0 {
				return next(c)
			}

			day := clock().Format("2006-01-02")
			used, err := cache.SearchCount(ctx, caller.UserID, day)
			if err != nil {
				log.Warn().Err(err).Str("user_id", caller.UserID.String()).Msg("Failed to read search count")
				return next(c)
			}

			limit := int64(plan.MaxSearchesPerDay)
			header := c.Response().Header()
			header.Set("X-Search-Limit", strconv.Itoa(plan.MaxSearchesPerDay))
			if used >= limit {
				header.Set("X-Search-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests,
					fmt.Sprintf("Daily search limit of %d reached. Upgrade your plan for more searches", plan.MaxSearchesPerDay))
			}
			header.Set("X-Search-Remaining", strconv.FormatInt(limit-used-1, 10))

			if err := next(c); err != nil {
				if !c.Response().Committed {
					header.Set("X-Search-Remaining", strconv.FormatInt(limit-used, 10))
				}
				return err
			}
			if c.Response().Status >= http.StatusBadRequest {
				return nil
			}
			if _, err := cache.IncrementSearchCount(ctx, caller.UserID, day); err != nil {
				log.Warn().Err(err).Str("user_id", caller.UserID.String()).Msg("Failed to count search")
			}
			return nil
		}
	}
}
