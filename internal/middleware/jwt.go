package middleware

import (
	"errors"
	"net/http"

	"medassist/internal/common"
	"medassist/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// tokenContextKey is where echo-jwt stores the parsed token.
const tokenContextKey = "user"

// JWTCustomClaims carries the caller's role next to the standard claims.
// The subject is the user id.
type JWTCustomClaims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

func jwtConfig(secret string, optional bool) echojwt.Config {
	return echojwt.Config{
		SigningKey: []byte(secret),
		ContextKey: tokenContextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(JWTCustomClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if optional && errors.Is(err, echojwt.ErrJWTMissing) {
				return nil
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized to access this route")
		},
		ContinueOnIgnoredError: optional,
	}
}

// Authenticate requires a valid bearer token and stores the caller on the
// request context.
func Authenticate(secret string) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(jwtConfig(secret, false))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(attachCaller(next))
	}
}

// OptionalAuthenticate identifies the caller when a token is present and
// lets anonymous requests through. A present but invalid token is rejected.
func OptionalAuthenticate(secret string) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(jwtConfig(secret, true))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(attachCaller(next))
	}
}

func attachCaller(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := c.Get(tokenContextKey).(*jwt.Token)
		if !ok {
			return next(c)
		}
		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token claims")
		}
		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid user id in token")
		}
		role := claims.Role
		if role == "" {
			role = models.RoleUser
		}

		ctx := common.WithCaller(c.Request().Context(), models.Caller{UserID: userID, Role: role})
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
