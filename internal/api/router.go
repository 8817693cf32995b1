package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/clipcoins/clipcoins-api/docs"
	"github.com/clipcoins/clipcoins-api/internal/api/handler"
	"github.com/clipcoins/clipcoins-api/internal/api/middleware"
	"github.com/clipcoins/clipcoins-api/internal/core/domain"
	"github.com/clipcoins/clipcoins-api/internal/core/ports"
)

// Deps are the services and probes the router wires into handlers.
type Deps struct {
	Identities ports.IdentityService
	Posts      ports.PostService
	Health     map[string]handler.Pinger
	Logger     zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))

	auth := middleware.Auth(deps.Identities)
	anyRole := middleware.RBAC(domain.RoleUser, domain.RoleAdmin)

	identityHandler := handler.NewIdentityHandler(deps.Identities)
	sessionHandler := handler.NewSessionHandler(deps.Identities)
	postHandler := handler.NewPostHandler(deps.Posts)
	healthHandler := handler.NewHealthHandler(deps.Health)

	// --- Session routes ---
	e.POST("/users/login", sessionHandler.Login)
	e.POST("/users/login/verify", sessionHandler.Verify)
	e.GET("/users/auth", sessionHandler.Authenticate)

	// --- Identity routes ---
	e.POST("/users", identityHandler.Register)
	users := e.Group("/users", auth, anyRole)
	users.GET("", identityHandler.List)
	users.GET("/by-name", identityHandler.GetByName)
	users.GET("/telegram/:externalId", identityHandler.GetByTelegramID)
	users.GET("/:id", identityHandler.Get)
	users.PATCH("/:id", identityHandler.Update)
	users.DELETE("/:id", identityHandler.Delete)

	// --- Post routes ---
	e.GET("/posts", postHandler.List)
	e.GET("/posts/:id", postHandler.Get)
	posts := e.Group("/posts", auth, anyRole)
	posts.POST("", postHandler.Create)
	posts.PATCH("/:id", postHandler.Update)
	posts.DELETE("/:id", postHandler.Delete)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	// --- Operations ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger emits one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil {
				event = log.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
