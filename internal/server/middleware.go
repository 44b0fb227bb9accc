package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gymhub/internal/metrics"
)

// MetricsMiddleware records every request against its route template so
// path parameters do not blow up label cardinality.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start).Seconds(),
		)
	}
}
