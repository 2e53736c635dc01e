package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/account-system/docs"
	"github.com/99minutos/account-system/internal/api/handler"
	"github.com/99minutos/account-system/internal/api/middleware"
	"github.com/99minutos/account-system/internal/core/domain"
	"github.com/99minutos/account-system/internal/core/ports"
	"github.com/99minutos/account-system/internal/infrastructure/http/handlers"
)

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Accounts  ports.AccountService
	Auth      ports.AuthService
	Tokens    ports.TokenIssuer
	Readiness map[string]handlers.PingFunc
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddleware("accounts_http"))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Accounts)
	accountHandler := handler.NewAccountHandler(deps.Accounts)
	authMiddleware := middleware.Auth(deps.Tokens)

	// --- Public routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/users/register", authHandler.Register)

	// --- Account routes (JWT required; ownership enforced by the service) ---
	users := e.Group("/users", authMiddleware)
	users.GET("", accountHandler.List, middleware.RBAC(domain.RoleAdmin))
	users.GET("/:id", accountHandler.Get)
	users.PUT("/:id", accountHandler.Replace)
	users.PATCH("/:id", accountHandler.Patch)
	users.DELETE("/:id", accountHandler.Delete)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operability ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger emits one zerolog entry per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil || v.Status >= 500 {
				evt = log.Warn().Err(v.Error)
			}
			evt.
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
