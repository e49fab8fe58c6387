package middlewares

import (
	"github.com/gin-gonic/gin"

	"jobsvc/internal/app/pkg/ginx"
)

// ErrorHandler 统一错误处理中间件：处理器通过 c.Error 上报且未写响应时，按错误类型输出
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			ginx.RenderError(c, c.Errors.Last().Err)
		}
	}
}
