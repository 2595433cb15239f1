package http

import (
	"github.com/gin-gonic/gin"

	"github.com/democratize-technology/open-food-facts/config"
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
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	if cfg.RateLimit.PerIP > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	}

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/product/:barcode", handler.GetProduct)

		products := v1.Group("/products")
		{
			products.POST("/search", handler.SearchProducts)
			products.POST("", handler.AddProduct)
			products.POST("/:barcode/photos", handler.UploadPhoto)
		}

		v1.GET("/taxonomy/:type", handler.GetTaxonomy)
		v1.GET("/insights/random", handler.GetRandomInsight)
	}

	return router
}
