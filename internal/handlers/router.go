package handlers

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter mounts every endpoint under /api.
func NewRouter(jobs *JobHandler, scrape *ScrapeHandler, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true // frontend dev server runs on another port
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	api := r.Group("/api")
	{
		api.GET("/health", HealthCheck)

		api.GET("/jobs/", jobs.ListJobs)
		api.GET("/jobs/:id/", jobs.GetJob)
		api.GET("/companies/", jobs.ListCompanies)
		api.GET("/companies/:id/", jobs.GetCompany)

		api.GET("/scrape/", scrape.ScrapeStatus)
		api.POST("/scrape/", scrape.TriggerScrape)
	}
	return r
}

// RequestLogger writes one structured line per request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.Error("request", attrs...)
		case c.Writer.Status() >= 400:
			logger.Warn("request", attrs...)
		default:
			logger.Info("request", attrs...)
		}
	}
}
