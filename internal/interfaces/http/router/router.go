// Package router assembles the storefront HTTP API
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storefront/cartsync/internal/infrastructure/config"
	"github.com/storefront/cartsync/internal/infrastructure/logger"
	"github.com/storefront/cartsync/internal/interfaces/http/handler"
	"github.com/storefront/cartsync/internal/interfaces/http/middleware"
)

// RouteRegistrar mounts a handler's routes on a group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Handlers are the API handlers served by the router. Auth is optional and
// only mounted when development login is enabled.
type Handlers struct {
	Cart    *handler.CartHandler
	Catalog *handler.CatalogHandler
	Tax     *handler.TaxHandler
	Auth    *handler.AuthHandler
	Health  *handler.HealthHandler
}

// Config holds the router's cross-cutting settings
type Config struct {
	HTTP      config.HTTPConfig
	Telemetry config.TelemetryConfig
	Validator middleware.TokenValidator
	Logger    *zap.Logger
}

// New builds the gin engine with the middleware chain and /api/v1 routes
func New(cfg Config, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.SpanAttributes(),
		middleware.CORSWithConfig(corsConfig(cfg.HTTP)),
	)
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}

	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
	}

	api := engine.Group("/api/v1")
	public := []RouteRegistrar{h.Catalog, h.Tax}
	if h.Auth != nil {
		public = append(public, h.Auth)
	}
	register(api, public...)

	authed := api.Group("", middleware.JWTAuth(cfg.Validator, log))
	register(authed, h.Cart)

	return engine
}

func register(rg *gin.RouterGroup, registrars ...RouteRegistrar) {
	for _, r := range registrars {
		r.RegisterRoutes(rg)
	}
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	return cors
}
