package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/sakugabase/pkg/apperrors"
	"github.com/d60-Lab/sakugabase/pkg/logger"
	"github.com/d60-Lab/sakugabase/pkg/response"
)

// Recovery 捕获 panic，上报 sentry 并返回 INTERNAL_ERROR
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && err == http.ErrAbortHandler {
				panic(rec)
			}
			logger.Error("panic recovered",
				zap.Any("panic", rec),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetString("request_id")),
				zap.ByteString("stack", debug.Stack()),
			)
			if hub := sentry.CurrentHub(); hub.Client() != nil {
				hub.Recover(rec)
			}
			response.Fail(c, apperrors.CodeInternal, "internal server error", nil)
		}()
		c.Next()
	}
}

// Sentry 为每个请求克隆 hub 并附带请求信息
func Sentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sentry.CurrentHub().Client() == nil {
			c.Next()
			return
		}
		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(c.Request)
		hub.Scope().SetTag("request_id", c.GetString("request_id"))
		c.Request = c.Request.WithContext(sentry.SetHubOnContext(c.Request.Context(), hub))
		c.Next()
		if len(c.Errors) > 0 {
			hub.CaptureException(fmt.Errorf("%s", c.Errors.String()))
		}
	}
}
