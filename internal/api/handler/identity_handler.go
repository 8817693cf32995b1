package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clipcoins/clipcoins-api/internal/core/domain"
	"github.com/clipcoins/clipcoins-api/internal/core/ports"
)

// IdentityHandler handles HTTP requests for identity management.
type IdentityHandler struct {
	service ports.IdentityService
}

func NewIdentityHandler(service ports.IdentityService) *IdentityHandler {
	return &IdentityHandler{service: service}
}

func toIdentityResponse(i *domain.Identity) identityResponse {
	return identityResponse{
		ID:          i.ID,
		ExternalID:  i.ExternalID,
		DisplayName: i.DisplayName,
		Role:        i.Role.String(),
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

// Register handles POST /users.
//
// @Summary      Register a Telegram-linked user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Telegram account"
// @Success      201   {object}  identityResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /users [post]
func (h *IdentityHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	identity, err := h.service.Register(c.Request().Context(), ports.RegisterIdentityInput{
		ID:          req.ID,
		ExternalID:  *req.ExternalID,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toIdentityResponse(identity))
}

// List handles GET /users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   identityResponse
// @Failure      401  {object}  errorResponse
// @Router       /users [get]
func (h *IdentityHandler) List(c echo.Context) error {
	identities, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]identityResponse, 0, len(identities))
	for _, i := range identities {
		out = append(out, toIdentityResponse(i))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /users/:id.
//
// @Summary      Get a user by id
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  identityResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [get]
func (h *IdentityHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	identity, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toIdentityResponse(identity))
}

// GetByTelegramID handles GET /users/telegram/:externalId.
//
// @Summary      Get a user by Telegram id
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        externalId  path      int  true  "Telegram account id"
// @Success      200         {object}  identityResponse
// @Failure      401         {object}  errorResponse
// @Failure      404         {object}  errorResponse
// @Router       /users/telegram/{externalId} [get]
func (h *IdentityHandler) GetByTelegramID(c echo.Context) error {
	externalID, err := pathExternalID(c, "externalId")
	if err != nil {
		return err
	}
	identity, err := h.service.GetByExternalID(c.Request().Context(), externalID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toIdentityResponse(identity))
}

// GetByName handles GET /users/by-name?username=.
//
// @Summary      Get a user by username
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        username  query     string  true  "Display name"
// @Success      200       {object}  identityResponse
// @Failure      400       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /users/by-name [get]
func (h *IdentityHandler) GetByName(c echo.Context) error {
	name := c.QueryParam("username")
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username is required")
	}
	identity, err := h.service.GetByDisplayName(c.Request().Context(), name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toIdentityResponse(identity))
}

// Update handles PATCH /users/:id. Callers may update themselves; only an
// ADMIN may update others or change a role.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                    true  "User id"
// @Param        body  body      updateIdentityRequest  true  "Fields to change"
// @Success      200   {object}  identityResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /users/{id} [patch]
func (h *IdentityHandler) Update(c echo.Context) error {
	caller, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := selfOrAdmin(caller, id); err != nil {
		return err
	}

	var req updateIdentityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.Role != nil && !caller.IsAdmin() {
		return domain.ErrForbidden
	}

	identity, err := h.service.Update(c.Request().Context(), id, domain.IdentityPatch{
		DisplayName: req.DisplayName,
		Role:        req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toIdentityResponse(identity))
}

// Delete handles DELETE /users/:id.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  identityResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [delete]
func (h *IdentityHandler) Delete(c echo.Context) error {
	caller, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := selfOrAdmin(caller, id); err != nil {
		return err
	}

	identity, err := h.service.Delete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toIdentityResponse(identity))
}
