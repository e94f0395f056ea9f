package router

import (
	"github.com/gin-gonic/gin"

	"github.com/habitloop/habitloop-backend/internal/api"
	"github.com/habitloop/habitloop-backend/internal/middleware"
	"github.com/habitloop/habitloop-backend/internal/service"
)

// SetupRouter configures the application routes. planRateLimit may be nil
// when no Redis-backed limiter is available (tests).
func SetupRouter(
	authHandler *api.AuthHandler,
	planHandler *api.PlanHandler,
	metricsHandler *api.MetricsHandler,
	profileHandler *api.ProfileHandler,
	authService service.IAuthService,
	planRateLimit gin.HandlerFunc,
	allowedOrigins []string,
) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.ErrorHandler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")

	// Auth routes
	authHandler.RegisterRoutes(v1)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authService))
	{
		planHandler.RegisterRoutes(protected, planRateLimit)
		metricsHandler.RegisterRoutes(protected)
		profileHandler.RegisterRoutes(protected)
	}

	return router
}
