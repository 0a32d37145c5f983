package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"pdf-research-summarizer/internal/telemetry"
)

// MetricsMiddleware records request counts and durations per route.
func MetricsMiddleware(metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(c.Request.Context(), c.Request.Method, route,
			c.Writer.Status(), time.Since(start).Seconds())
	}
}
