package http

import (
	"github.com/gin-gonic/gin"
	"github.com/ttokjang/backend/config"
	"github.com/ttokjang/backend/internal/logger"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(logger.RequestLogger())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// Offline shopping endpoints
	v1 := router.Group("/v1/offline")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.POST("/basket/parse", handler.ParseBasket)

		utils := v1.Group("/utils")
		{
			utils.POST("/match-candidates", handler.MatchCandidates)
			utils.GET("/geocode", handler.Geocode)
		}
	}

	return router
}
