package router

import (
	"github.com/gestionale/backend/internal/infrastructure/auth"
	"github.com/gestionale/backend/internal/infrastructure/logger"
	"github.com/gestionale/backend/internal/interfaces/http/handler"
	"github.com/gestionale/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouteRegistrar registers a group of related routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Config carries everything the router needs to assemble the API
type Config struct {
	JWTService *auth.JWTService
	Blacklist  auth.TokenBlacklist
	Logger     *zap.Logger
	System     *handler.SystemHandler
	Registrars []RouteRegistrar
}

// New builds the gin engine: request logging, panic recovery, health
// endpoints outside the API group, and the versioned API behind JWT auth.
// Login and refresh are the only API paths that skip authentication.
func New(cfg Config) *gin.Engine {
	engine := gin.New()
	engine.Use(logger.GinMiddleware(cfg.Logger))
	engine.Use(logger.Recovery(cfg.Logger))

	if cfg.System != nil {
		engine.GET("/health", cfg.System.Health)
		engine.GET("/ready", cfg.System.Ready)
	}

	api := engine.Group("/api/v1")
	api.Use(middleware.JWTAuth(middleware.JWTMiddlewareConfig{
		JWTService: cfg.JWTService,
		Blacklist:  cfg.Blacklist,
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
		},
		Logger: cfg.Logger,
	}))

	for _, registrar := range cfg.Registrars {
		registrar.RegisterRoutes(api)
	}

	return engine
}
