package middleware

import (
	"fmt"
	"net/http"
	"time"

	pkgerrors "campusdesk/pkg/errors"
	"campusdesk/pkg/utils/logger"
	"campusdesk/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger logs one line per completed request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		logger.Info(
			c.Request.Context(),
			"request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// Recovery turns a handler panic into a 500 envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				err := pkgerrors.Wrap(fmt.Errorf("panic: %v", p), pkgerrors.InternalServerError)
				if c.Writer.Written() {
					logger.Error(c.Request.Context(), "panic after response was written", zap.Error(err))
					c.Abort()
					return
				}
				response.AbortWithError(c, err)
			}
		}()
		c.Next()
	}
}
