package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tikscope/tikscope/cache"
	"github.com/tikscope/tikscope/config"
	"github.com/tikscope/tikscope/models"
	"github.com/tikscope/tikscope/scraper"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// Orchestration flow:
//  1. Parse & validate request.
//  2. Cache lookup when max_age > 0.
//  3. Scraper.ScrapeAccount   (records scrape_ms)
//  4. Cache store, fill Timing, return 200.
func Scrape(sc *scraper.Scraper, cc *cache.Cache, cfg config.ScraperConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ScrapeResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		cacheKey := cache.Key(req.Username)
		if cc != nil && req.MaxAge > 0 {
			if snap, hit := cc.Get(cacheKey, req.MaxAge); hit {
				c.JSON(http.StatusOK, models.ScrapeResponse{
					Success:     true,
					Snapshot:    snap,
					CacheStatus: "hit",
					Timing: models.TimingInfo{
						TotalMs: time.Since(totalStart).Milliseconds(),
					},
				})
				return
			}
		}

		ctx := c.Request.Context()
		if req.Timeout > 0 {
			timeout := time.Duration(req.Timeout) * time.Second
			if cfg.MaxTimeout > 0 && timeout > cfg.MaxTimeout {
				timeout = cfg.MaxTimeout
			}
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		scrapeStart := time.Now()
		snap, err := sc.ScrapeAccount(ctx, req.Username)
		scrapeMs := time.Since(scrapeStart).Milliseconds()

		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				ScrapeMs: scrapeMs,
			})
			return
		}

		resp := models.ScrapeResponse{
			Success:  true,
			Snapshot: snap,
			Timing: models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				ScrapeMs: scrapeMs,
			},
		}
		if cc != nil {
			cc.Set(cacheKey, snap)
			if req.MaxAge > 0 {
				resp.CacheStatus = "miss"
			}
		}

		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps a scrape failure to the correct HTTP status code and
// writes a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	scrapeErr, ok := err.(*models.ScrapeError)
	if !ok {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(statusForError(err), models.ScrapeResponse{
		Success: false,
		Error:   scrapeErr.ToDetail(),
		Timing:  timing,
	})
}

// statusForError translates error codes to HTTP status codes. Exhausted
// retries report the status of the last underlying cause, which CodeOf
// unwraps.
func statusForError(err error) int {
	switch models.CodeOf(err) {
	case models.ErrCodeProfileNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeProfilePrivate:
		return http.StatusForbidden // 403
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeRateLimited, models.ErrCodeBotDetected:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeProxyConnection, models.ErrCodeScrapeExhausted:
		// An exhaustion code here means no attempt produced a classified
		// cause; the upstream never gave a usable answer.
		return http.StatusBadGateway // 502
	case models.ErrCodeConnectionRefused, models.ErrCodeNetwork:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeConnectionTimeout, models.ErrCodeNavigationTimeout:
		return http.StatusGatewayTimeout // 504
	default:
		return http.StatusInternalServerError // 500
	}
}
