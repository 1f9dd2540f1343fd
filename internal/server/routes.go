package server

import (
	"github.com/nulzo/unillm/internal/server/middleware"
	v1 "github.com/nulzo/unillm/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.ErrorHandler(s.logger))

	healthHandler := v1.NewHealthHandler(s.deps.Catalog)
	s.router.GET("/health", healthHandler.Health)

	api := s.router.Group("/v1")
	api.Use(s.limiter.Middleware())
	api.Use(middleware.Auth(s.config.Server.APIKeys))
	{
		modelHandler := v1.NewModelHandler(s.deps.Catalog)
		api.GET("/models", modelHandler.ListModels)
		api.GET("/models/:name", modelHandler.GetModel)
		api.POST("/models/:name/config", modelHandler.PrepareConfig)

		costHandler := v1.NewCostHandler(s.deps.Catalog, s.deps.Ingestor)
		api.POST("/cost", costHandler.EstimateCost)
		api.POST("/cost/batch", costHandler.BatchCost)

		if s.deps.Analytics != nil {
			analyticsHandler := v1.NewAnalyticsHandler(s.deps.Analytics)
			api.GET("/analytics/usage", analyticsHandler.GetUsage)
			api.GET("/analytics/costs", analyticsHandler.GetCosts)
		}

		adminHandler := v1.NewAdminHandler(s.deps.Catalog)
		admin := api.Group("/admin")
		admin.POST("/reload", adminHandler.Reload)
		admin.PUT("/pricing/:name", adminHandler.PutPricing)
		admin.DELETE("/pricing/:name", adminHandler.DeletePricing)
	}
}
