package router

import (
	"github.com/cuongbtq/jobboard-api/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// Config holds what the router needs beyond handler dependencies
type Config struct {
	BasePath  string
	CORS      CORSConfig
	Connector Connector
}

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, cfg *Config) *gin.Engine {
	r := gin.New()
	// paths either dispatch or 404; no trailing-slash redirects
	r.RedirectTrailingSlash = false

	// Middleware
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(recoverFault(deps.Logger))
	r.Use(CORSMiddleware(cfg.CORS))
	r.Use(FaultMiddleware())

	healthHandler := handler.NewHealthHandler(deps)
	r.GET("/health", healthHandler.Health)

	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/"
	}

	// One entry point for every resource and method
	resourceHandler := handler.NewResourceHandler(deps)
	r.Any(basePath, SessionMiddleware(cfg.Connector, deps.Logger), resourceHandler.Dispatch)

	r.NoRoute(handler.NotFound)
	r.NoMethod(handler.NotFound)

	return r
}
