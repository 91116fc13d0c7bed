package user

import (
	"devfolio/portfolio-api/internal"
	"devfolio/portfolio-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

func UserFetch(c *gin.Context, _ *internal.Deps) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    u,
	})
}

// UserPortfolio serves the public profile shown on the portfolio site
func UserPortfolio(c *gin.Context, d *internal.Deps) {
	u, err := d.Accounts.Portfolio(c.Request.Context())
	if err != nil {
		// Aborting keeps the response cache from storing the failure
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    u,
	})
}
