package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clipcoins/clipcoins-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain
// errors to status codes and renders {"error": "<message>"}. Unexpected
// errors are logged and reported as a generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var fe *domain.FieldError
	if errors.As(err, &fe) {
		return http.StatusUnprocessableEntity, errorResponse{Error: fe.Err.Error(), Field: fe.Field}
	}

	switch {
	case errors.Is(err, domain.ErrIdentityNotFound):
		return http.StatusNotFound, errorResponse{Error: "user not found"}
	case errors.Is(err, domain.ErrPostNotFound):
		return http.StatusNotFound, errorResponse{Error: "post not found"}
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, errorResponse{Error: "already exists"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "access forbidden"}
	case errors.Is(err, domain.ErrCredentialExpired):
		return http.StatusUnauthorized, errorResponse{Error: "credential expired, a new one has been sent"}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credential"}
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, errorResponse{Error: "token expired"}
	case errors.Is(err, domain.ErrTokenSignature), errors.Is(err, domain.ErrTokenMalformed):
		return http.StatusUnauthorized, errorResponse{Error: "invalid token"}
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, errorResponse{Error: "unauthenticated"}
	case errors.Is(err, domain.ErrInvalidRole), errors.Is(err, domain.ErrEmptyUpdate):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error()}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
