package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"chat-gateway/internal/infrastructure/metrics"
)

// Metrics records request counts and latency per route. The route
// template is used instead of the raw path to keep label cardinality
// bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.RecordRequest(c.Request.Method, endpoint, status, time.Since(start).Seconds())
	}
}
