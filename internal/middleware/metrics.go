package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"sweet_shop/internal/metrics"
)

// Metrics 记录请求数与耗时，path 使用路由模板以控制标签基数。
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
