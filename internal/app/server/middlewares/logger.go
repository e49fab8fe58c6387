package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"

	"jobsvc/internal/app/pkg/logger"
)

// Logger 请求日志
func Logger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Infof(c.Request.Context(), "%s %s %d %s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
