package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tikscope/tikscope/models"
)

// Auth gates protected routes behind a static API key list. Keys arrive
// either as `X-API-Key: <key>` or `Authorization: Bearer <key>`; both map to
// the same key set. Deployments that run without keys (local, behind a
// trusted proxy) pass an empty list and get a pass-through handler.
//
// The accepted key lands in the request context under "api_key", which is
// what the rate limiter buckets on.
func Auth(apiKeys []string) gin.HandlerFunc {
	if len(apiKeys) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	allowed := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			allowed[k] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		key := requestKey(c)
		if key == "" {
			reject(c, "missing API key: provide X-API-Key header or Authorization: Bearer <key>")
			return
		}
		if _, ok := allowed[key]; !ok {
			reject(c, "invalid API key")
			return
		}

		c.Set("api_key", key)
		c.Next()
	}
}

func reject(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ScrapeResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeUnauthorized,
			Message: msg,
		},
	})
}

// requestKey pulls the presented key out of the request; the dedicated
// header wins over the Authorization form when both are present.
func requestKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
