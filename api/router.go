// Package api wires the HTTP surface: routes, auth and rate limiting.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tikscope/tikscope/api/handler"
	"github.com/tikscope/tikscope/api/middleware"
	"github.com/tikscope/tikscope/cache"
	"github.com/tikscope/tikscope/config"
	"github.com/tikscope/tikscope/proxy"
	"github.com/tikscope/tikscope/scraper"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(sc *scraper.Scraper, proxies *proxy.Pool, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(sc, proxies, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Scrape
	protected.POST("/scrape", handler.Scrape(sc, cc, cfg.Scraper))

	// Batch
	protected.POST("/batch/scrape", handler.PostBatch(sc, cc))
	protected.GET("/batch/:id", handler.GetBatch())

	return r
}
