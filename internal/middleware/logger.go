package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logger 每个请求记录一条访问日志；5xx 记为 error。
func Logger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": RequestIDFrom(c),
			"client_ip":  c.ClientIP(),
		}
		if id, ok := IdentityFrom(c); ok {
			fields["user_id"] = id.UserID
		}
		entry := log.WithFields(fields)
		if len(c.Errors) > 0 {
			entry = entry.WithError(c.Errors.Last())
		}

		switch {
		case status >= 500:
			entry.Error("request failed")
		default:
			entry.Info("request handled")
		}
	}
}
