package middleware

import (
	"strconv"
	"time"

	"github.com/edirooss/avcapture-server/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request counts and latencies by route template, so
// per-feed paths share one series.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
