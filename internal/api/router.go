package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/storefront/identity/internal/api/handler"
	"github.com/storefront/identity/internal/api/middleware"
	"github.com/storefront/identity/internal/core/ports"
	"github.com/storefront/identity/internal/infrastructure/http/handlers"

	_ "github.com/storefront/identity/docs"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Auth         ports.AuthService
	Resolver     ports.IdentityResolver
	Events       ports.AuthEventRecorder // optional
	Checks       map[string]handlers.Check
	SecureCookie bool
	Log          zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddleware("identity"))

	// --- User routes ---
	users := handler.NewUserHandler(d.Auth, d.Resolver, d.SecureCookie)

	u := e.Group("/user")
	u.POST("/login", users.Login)
	u.POST("/register", users.Register)
	u.POST("/google-login", users.GoogleLogin)
	u.POST("/logout", users.Logout)

	var gatewayOpts []middleware.GatewayOption
	if d.Events != nil {
		gatewayOpts = append(gatewayOpts, middleware.WithRejectionRecorder(d.Events))
	}

	authed := u.Group("", middleware.Auth(d.Auth, gatewayOpts...))
	authed.GET("/me", users.Me)
	authed.GET("/admin/ping", users.AdminPing, middleware.IsAdmin())

	// --- Health probes (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	e.GET("/health/ready", handlers.NewHealthDependenciesHandler(d.Checks).Readiness)

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandler())
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
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
