package server

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/nulzo/unillm/internal/analytics"
	"github.com/nulzo/unillm/internal/config"
	"github.com/nulzo/unillm/internal/server/middleware"
	v1 "github.com/nulzo/unillm/internal/server/v1"
	"github.com/nulzo/unillm/internal/server/validation"
	"go.uber.org/zap"
)

const ServiceName = "unillm"

// Deps are the services the HTTP layer fronts. Analytics and Ingestor may be
// nil when no store is configured.
type Deps struct {
	Catalog   v1.Catalog
	Analytics analytics.Service
	Ingestor  analytics.Ingestor
}

type Server struct {
	router  *gin.Engine
	config  *config.Config
	logger  *zap.Logger
	deps    Deps
	limiter *middleware.RateLimiter
}

func New(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	validation.Init()

	engine := gin.New()
	engine.Use(ginzap.RecoveryWithZap(logger, true))
	if cfg.Tracing.Enabled {
		engine.Use(middleware.Tracing(ServiceName))
	}
	engine.Use(middleware.Identity())
	engine.Use(middleware.Logger(logger))

	s := &Server{
		router:  engine,
		config:  cfg,
		logger:  logger,
		deps:    deps,
		limiter: middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, logger),
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// SweepLimiter periodically forgets idle rate-limit clients until done closes.
func (s *Server) SweepLimiter(done <-chan struct{}, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			if n := s.limiter.Sweep(now); n > 0 {
				s.logger.Debug("Swept idle rate limiters", zap.Int("removed", n))
			}
		case <-done:
			return
		}
	}
}
