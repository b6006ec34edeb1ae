package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roomradar/rate-shopper/internal/api/handlers"
	"github.com/roomradar/rate-shopper/internal/metrics"
	"github.com/roomradar/rate-shopper/internal/services"
)

func SetupRouter(scheduler *services.SearchScheduler, worker *services.ExtractionWorker, aggregator *services.TrendAggregator, properties *services.PropertyService, corsOrigins string) *gin.Engine {
	router := gin.Default()

	// CORS configuration - allow configured origins or use defaults
	config := cors.DefaultConfig()
	if corsOrigins != "" {
		config.AllowOrigins = strings.Split(corsOrigins, ",")
	} else {
		config.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.AllowCredentials = false
	router.Use(cors.New(config))
	router.Use(requestMetrics())

	// Initialize handlers
	searchHandler := handlers.NewSearchHandler(scheduler, worker)
	trendHandler := handlers.NewTrendHandler(aggregator)
	propertyHandler := handlers.NewPropertyHandler(properties)

	// API routes
	api := router.Group("/api")
	{
		// Search routes
		searches := api.Group("/searches")
		{
			searches.POST("", searchHandler.CreateSearch)
			searches.GET("", searchHandler.ListSearches)
			searches.GET("/:uuid", searchHandler.GetSearch)
			searches.POST("/:uuid/cancel", searchHandler.CancelSearch)
		}

		// Trend routes
		api.GET("/trends", trendHandler.GetTrends)

		// Property routes
		props := api.Group("/properties")
		{
			props.GET("", propertyHandler.ListProperties)
			props.POST("", propertyHandler.CreateProperty)
			props.PUT("/:id", propertyHandler.UpdateProperty)
		}

		// Worker pool status
		api.GET("/extraction/status", searchHandler.GetExtractionStatus)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// requestMetrics records request counts and latency per route
func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
