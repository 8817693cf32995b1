package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clipcoins/clipcoins-api/internal/core/domain"
)

// IdentityKey is the echo context key holding the caller's
// domain.IdentitySnapshot once Auth has run.
const IdentityKey = "identity"

// Authenticator resolves an Authorization header to the identity it asserts.
type Authenticator interface {
	Authenticate(ctx context.Context, authorizationHeader string) (*domain.IdentitySnapshot, error)
}

// Auth validates the bearer token and injects the identity snapshot into
// context. Authentication errors are passed to the HTTP error handler.
func Auth(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			snapshot, err := authn.Authenticate(c.Request().Context(), header)
			if err != nil {
				return err
			}

			c.Set(IdentityKey, *snapshot)
			return next(c)
		}
	}
}

// Identity returns the snapshot set by Auth.
func Identity(c echo.Context) (domain.IdentitySnapshot, bool) {
	snapshot, ok := c.Get(IdentityKey).(domain.IdentitySnapshot)
	return snapshot, ok
}
