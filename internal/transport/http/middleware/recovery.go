package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "property-listing/internal/transport/http/response"
)

// SimpleRecovery panic 转成 500 信封，并记一条带 rid 的错误日志
func SimpleRecovery(l *zap.Logger) gin.HandlerFunc {
	if l == nil {
		l = zap.NewNop()
	}
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				l.Error("panic recovered",
					zap.String("rid", c.GetString(KeyRequestID)),
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				resp.Abort(c, resp.Error(resp.CodeServerError, "internal error"))
			}
		}()
		c.Next()
	}
}
