package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tikscope/tikscope/models"
	"github.com/tikscope/tikscope/proxy"
	"github.com/tikscope/tikscope/scraper"
)

// Health returns a handler for GET /api/v1/health.
func Health(sc *scraper.Scraper, proxies *proxy.Pool, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:        "healthy",
			Uptime:        time.Since(startTime).Round(time.Second).String(),
			ActiveScrapes: sc.ActiveScrapes(),
			ProxyPoolSize: proxies.Size(),
			Version:       "0.1.0",
		})
	}
}
