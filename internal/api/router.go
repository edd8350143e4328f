package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/openforum/session-gateway/internal/api/handler"
	"github.com/openforum/session-gateway/internal/api/middleware"
	"github.com/openforum/session-gateway/internal/core/domain"
	"github.com/openforum/session-gateway/internal/infrastructure/provider/oauth"
	"github.com/openforum/session-gateway/internal/session"
)

// RouterDeps carries everything the HTTP surface needs. Flow may be nil
// when no federated provider is configured.
type RouterDeps struct {
	Registry *session.Registry
	Verifier middleware.TokenVerifier
	Flow     *oauth.Flow
	States   handler.StateStore
	Mongo    *mongo.Database
	Redis    *redis.Client
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("session_gateway"))

	optional := middleware.OptionalSession(deps.Verifier, deps.Registry)
	required := middleware.RequireSession(deps.Verifier, deps.Registry)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Registry, deps.Flow, deps.States, deps.Log)
	sessionHandler := handler.NewSessionHandler()
	gateHandler := handler.NewGateHandler()
	membershipHandler := handler.NewMembershipHandler()
	adminHandler := handler.NewAdminHandler(deps.Registry)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/federated/url", authHandler.FederatedURL)
	e.POST("/auth/federated/exchange", authHandler.FederatedExchange)
	e.POST("/auth/logout", authHandler.Logout, required)
	e.PATCH("/auth/profile", authHandler.UpdateProfile, required, middleware.Gate(domain.RouteAuthenticated))

	// --- Session routes ---
	// Readable without a token: anonymous visitors get the shared context's
	// snapshot, the default theme, and the default role.
	e.GET("/session", sessionHandler.Current, optional)
	e.PUT("/session/theme", sessionHandler.SetTheme, optional)
	e.POST("/session/theme/toggle", sessionHandler.ToggleTheme, optional)
	e.GET("/session/role", sessionHandler.Role, optional)
	e.POST("/session/role/refetch", sessionHandler.RefetchRole, optional)

	// --- Gate checks for the client-side router ---
	e.POST("/gate/check", gateHandler.Check, optional)

	// --- Membership ---
	e.POST("/membership/upgrade", membershipHandler.Upgrade, required, middleware.Gate(domain.RouteAuthenticated))

	// --- Admin ---
	admin := e.Group("/admin", required, middleware.Gate(domain.RouteAdmin))
	admin.GET("/sessions", adminHandler.Sessions)

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	return e
}
