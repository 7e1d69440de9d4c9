package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformkit/scaling-engine/internal/logger"
)

// RequestLogger emits one structured log line per request after it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(map[string]interface{}{
			"status":      status,
			"method":      c.Request.Method,
			"path":        path,
			"duration_ms": time.Since(start).Milliseconds(),
			"client_ip":   c.ClientIP(),
		})
		if q := c.Request.URL.RawQuery; q != "" {
			entry = entry.WithField("query", q)
		}
		if id := GetTraceID(c); id != "" {
			entry = entry.WithField("trace_id", id)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("server error")
		case status >= 400:
			entry.Warn("client error")
		default:
			entry.Info("request completed")
		}
	}
}
