package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"webnotes/internal/observability"
)

// PrometheusMiddleware tracks request counts, latency and in-flight gauge.
func PrometheusMiddleware(metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()

		method := c.Request.Method
		endpoint := c.FullPath() // e.g. /notes/:id
		if endpoint == "" {
			endpoint = c.Request.URL.Path // no route pattern matched
		}
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
	}
}
