package root

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Validate only runs behind the auth middleware, reaching it means the
// session is good
func Validate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"userID":  c.GetString("userID"),
	})
}
