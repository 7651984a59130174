package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fakturscan/internal/handler"
	"fakturscan/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Parse  *handler.ParseHandler
	Result *handler.ResultHandler
	Health *handler.HealthHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(tokens middleware.TokenValidator, corsOrigins []string, logger *zap.Logger, h Handlers) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	// Protected routes - require valid JWT
	protected := r.Group("/api/v1")
	protected.Use(middleware.AuthMiddleware(tokens))

	protected.POST("/parse", h.Parse.Parse)
	protected.POST("/parse/upload", h.Parse.Upload)

	results := protected.Group("/results")
	results.GET("", h.Result.List)
	results.GET("/:id", h.Result.GetByID)
	results.GET("/:id/export", h.Result.Export)
	results.GET("/:id/archive", h.Result.ArchiveURL)
	results.DELETE("/:id", h.Result.Delete)

	return r
}
