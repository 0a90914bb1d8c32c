package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/teraprobe/api/handler"
	"github.com/use-agent/teraprobe/api/middleware"
	"github.com/use-agent/teraprobe/cache"
	"github.com/use-agent/teraprobe/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health, docs and test endpoints are outside auth so monitoring probes
// always work. ctx bounds the rate limiter's background cleanup.
func NewRouter(ctx context.Context, ex handler.Extractor, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	// Public.
	r.GET("/health", handler.Health(ex, cfg.Browser, startTime))
	r.GET("/docs", handler.Docs(cfg.Batch.MaxURLs))
	r.GET("/test", handler.Test())

	// Protected group: auth + rate limit.
	protected := r.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	protected.GET("/", handler.Extract(ex, cc))
	protected.POST("/batch", handler.Batch(ex, cfg.Batch.MaxURLs))

	return r
}
