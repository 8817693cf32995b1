package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clipcoins/clipcoins-api/internal/api/middleware"
	"github.com/clipcoins/clipcoins-api/internal/core/domain"
)

// currentIdentity returns the caller's snapshot injected by the Auth
// middleware. A missing snapshot means the route was wired without Auth.
func currentIdentity(c echo.Context) (domain.IdentitySnapshot, error) {
	snapshot, ok := middleware.Identity(c)
	if !ok || !snapshot.Role.Valid() {
		return domain.IdentitySnapshot{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return snapshot, nil
}

// pathID parses a positive int64 path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// pathExternalID parses a Telegram id path parameter; 0 is a valid id.
func pathExternalID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// selfOrAdmin allows the identity itself or any ADMIN.
func selfOrAdmin(caller domain.IdentitySnapshot, id int64) error {
	if caller.ID == id || caller.IsAdmin() {
		return nil
	}
	return domain.ErrForbidden
}
