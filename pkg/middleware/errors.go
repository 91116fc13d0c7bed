package middleware

import (
	"devfolio/portfolio-api/internal/apperror"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewErrorMiddleware renders the last error a handler attached with c.Error
// as {success:false, message, requestID}. Errors without a kind are reported
// as internal errors so nothing leaks to the client.
func NewErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}

		appErr := apperror.From(last.Err)
		status := appErr.Kind.Status()
		requestID := c.GetString("requestID")

		fields := []zap.Field{
			zap.String("requestID", requestID),
			zap.String("kind", appErr.Kind.String()),
			zap.Int("status", status),
			zap.Error(last.Err),
		}
		if status >= 500 {
			zap.L().Error("Request failed", fields...)
		} else {
			zap.L().Debug("Request rejected", fields...)
		}

		if c.Writer.Written() {
			return
		}

		c.JSON(status, gin.H{
			"success":   false,
			"message":   appErr.Message,
			"requestID": requestID,
		})
	}
}

// Abort attaches err to the request and stops the handler chain
func Abort(c *gin.Context, err error) {
	c.Error(err)
	c.Abort()
}
