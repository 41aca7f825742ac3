package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"book-workshop-api/pkg/errors"
	"book-workshop-api/pkg/logger"
)

// Recovery 捕获 panic，按统一错误格式返回 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			args := []any{
				"stack", string(debug.Stack()),
				"method", c.Request.Method,
				"route", c.FullPath(),
			}
			if tid := c.Param("tid"); tid != "" {
				args = append(args, "task_id", tid)
			}
			logger.Error(c.Request.Context(), "panic recovered", fmt.Errorf("%v", rec), args...)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			abortWithAppError(c, errors.ErrInternalError)
		}()

		c.Next()
	}
}
