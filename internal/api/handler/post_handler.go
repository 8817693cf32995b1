package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clipcoins/clipcoins-api/internal/core/domain"
	"github.com/clipcoins/clipcoins-api/internal/core/ports"
)

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	service ports.PostService
}

func NewPostHandler(service ports.PostService) *PostHandler {
	return &PostHandler{service: service}
}

// List handles GET /posts.
//
// @Summary      List posts
// @Tags         posts
// @Produce      json
// @Success      200  {array}  domain.Post
// @Router       /posts [get]
func (h *PostHandler) List(c echo.Context) error {
	posts, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

// Get handles GET /posts/:id.
//
// @Summary      Get a post
// @Tags         posts
// @Produce      json
// @Param        id   path      int  true  "Post id"
// @Success      200  {object}  domain.Post
// @Failure      404  {object}  errorResponse
// @Router       /posts/{id} [get]
func (h *PostHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	post, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// Create handles POST /posts. The author is the caller; an ADMIN may
// publish on behalf of another user through author_id.
//
// @Summary      Create a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createPostRequest  true  "Post"
// @Success      201   {object}  domain.Post
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /posts [post]
func (h *PostHandler) Create(c echo.Context) error {
	caller, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	authorID := caller.ID
	if req.AuthorID != 0 && req.AuthorID != caller.ID {
		if !caller.IsAdmin() {
			return domain.ErrForbidden
		}
		authorID = req.AuthorID
	}

	post, err := h.service.Create(c.Request().Context(), ports.CreatePostInput{
		ID:       req.ID,
		AuthorID: authorID,
		Title:    req.Title,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, post)
}

// Update handles PATCH /posts/:id.
//
// @Summary      Update a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Post id"
// @Param        body  body      updatePostRequest  true  "Fields to change"
// @Success      200   {object}  domain.Post
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /posts/{id} [patch]
func (h *PostHandler) Update(c echo.Context) error {
	id, err := h.authorizeOwner(c)
	if err != nil {
		return err
	}

	var req updatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	post, err := h.service.Update(c.Request().Context(), id, domain.PostPatch{
		Title:    req.Title,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// Delete handles DELETE /posts/:id.
//
// @Summary      Delete a post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Post id"
// @Success      200  {object}  domain.Post
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /posts/{id} [delete]
func (h *PostHandler) Delete(c echo.Context) error {
	id, err := h.authorizeOwner(c)
	if err != nil {
		return err
	}
	post, err := h.service.Delete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// authorizeOwner resolves the :id post and checks the caller is its author
// or an ADMIN.
func (h *PostHandler) authorizeOwner(c echo.Context) (int64, error) {
	caller, err := currentIdentity(c)
	if err != nil {
		return 0, err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return 0, err
	}
	post, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return 0, err
	}
	if post.AuthorID != caller.ID && !caller.IsAdmin() {
		return 0, domain.ErrForbidden
	}
	return id, nil
}
