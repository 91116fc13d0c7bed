package middleware

import (
	"devfolio/portfolio-api/internal/apperror"
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodySizeLimiter caps request bodies at maxBytes. Reads past the limit fail
// with *http.MaxBytesError, which the error middleware reports as 413.
func BodySizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Fast reject for honest clients
		if c.Request.ContentLength > maxBytes {
			Abort(c, apperror.TooLarge("Request body size exceeds limit"))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
