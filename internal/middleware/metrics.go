package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oktel/attendance-report/internal/service"
)

// Metrics returns middleware that captures request metrics using the provided service.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			// unmatched routes share one label to keep cardinality bounded
			path = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
		if hit, known := CacheHit(c); known {
			metricsSvc.RecordCachedResponse(path, hit)
		}
	}
}
