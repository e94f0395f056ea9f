package server

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/habitloop/habitloop-backend/config"
	"github.com/habitloop/habitloop-backend/internal/api"
	"github.com/habitloop/habitloop-backend/internal/middleware"
	"github.com/habitloop/habitloop-backend/internal/router"
	"github.com/habitloop/habitloop-backend/internal/service"
)

// Server wires services, handlers, and the HTTP engine together. Everything
// is constructed here at process start and shut down in Stop; nothing lives
// in package-level state.
type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
	audit  *service.AuditService
}

// New builds the server and its full dependency graph. redisClient may be
// nil; rate limiting and the metrics cache are skipped without it.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	auditService := service.NewAuditService(db)
	metricsService := service.NewMetricsService(db, redisClient)
	planService := service.NewPlanService(db, metricsService)
	recomputeService := service.NewRecomputeService(db)
	profileService := service.NewProfileService(db, recomputeService, auditService)
	authService := service.NewAuthService(db, cfg.JWTSecret)

	var planRateLimit gin.HandlerFunc
	if redisClient != nil {
		planRateLimit = middleware.NewPlanGenerationRateLimiter(redisClient).RateLimitMiddleware()
	}

	engine := router.SetupRouter(
		api.NewAuthHandler(authService),
		api.NewPlanHandler(planService),
		api.NewMetricsHandler(metricsService),
		api.NewProfileHandler(profileService),
		authService,
		planRateLimit,
		cfg.AllowedOrigins,
	)

	return &Server{
		router: engine,
		db:     db,
		audit:  auditService,
	}
}

// Start begins serving. It blocks until the listener fails or is shut down.
func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}

	log.Printf("Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server and waits for pending audit writes.
func (s *Server) Stop(ctx context.Context) error {
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.audit.Flush()
	return nil
}
