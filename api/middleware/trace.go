package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const TraceIDHeader = "X-Trace-ID"

const traceContextKey = "trace_id"

// TraceID propagates the caller's trace id or mints one, echoing it back in
// the response headers so clients can correlate logs.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(TraceIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(traceContextKey, id)
		c.Header(TraceIDHeader, id)
		c.Next()
	}
}

func GetTraceID(c *gin.Context) string {
	id, _ := c.Get(traceContextKey)
	s, _ := id.(string)
	return s
}
