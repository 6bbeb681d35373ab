package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atlaslab/studyatlas/internal/infrastructure/monitoring/logging"
)

// RequestLogger emits one structured line per request. 5xx log at error
// level so store failures are visible without debug logging.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", status),
			logging.Int64("duration_ms", time.Since(start).Milliseconds()),
			logging.String("request_id", c.GetString(ContextKeyRequestID)),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, logging.String("query", q))
		}

		switch {
		case status >= 500:
			logger.Error("request failed", fields...)
		case status >= 400:
			logger.Warn("request rejected", fields...)
		default:
			logger.Info("request served", fields...)
		}
	}
}
