package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clipcoins/clipcoins-api/internal/core/ports"
)

// SessionHandler drives the login → verify → authenticate flow.
type SessionHandler struct {
	service ports.IdentityService
}

func NewSessionHandler(service ports.IdentityService) *SessionHandler {
	return &SessionHandler{service: service}
}

// Login handles POST /users/login. A fresh credential is sent over
// Telegram when the current one is stale; the response is the same either way.
//
// @Summary      Request a login credential
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Username"
// @Success      202   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /users/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ack, err := h.service.Login(c.Request().Context(), req.DisplayName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, loginResponse{
		Message:    "check " + ack.Channel + " for your login code",
		Channel:    ack.Channel,
		AcceptedAt: ack.AcceptedAt,
	})
}

// Verify handles POST /users/login/verify.
//
// @Summary      Exchange a credential for a session token
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      verifyRequest  true  "Credential received over Telegram"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /users/login/verify [post]
func (h *SessionHandler) Verify(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	// blank credentials are rejected by the service as unauthorized
	token, err := h.service.Verify(c.Request().Context(), req.Credential)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: token.Value, ExpiresAt: token.ExpiresAt})
}

// Authenticate handles GET /users/auth.
//
// @Summary      Resolve the bearer token to its identity
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  snapshotResponse
// @Failure      401  {object}  errorResponse
// @Router       /users/auth [get]
func (h *SessionHandler) Authenticate(c echo.Context) error {
	snapshot, err := h.service.Authenticate(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snapshotResponse{
		ID:          snapshot.ID,
		DisplayName: snapshot.DisplayName,
		Role:        snapshot.Role.String(),
	})
}
