// Package middleware contains any custom middleware used in the app
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// NewRequestIDMiddleware returns a new middleware function that sets a request ID for each
// incoming request as requestID and echoes it in the X-Request-ID header. A UUID sent by
// a proxy in front of the API is kept, anything else is replaced.
func NewRequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader(requestIDHeader))
		if err != nil {
			id = uuid.New()
		}

		c.Set("requestID", id.String())
		c.Header(requestIDHeader, id.String())
		c.Next()
	}
}
