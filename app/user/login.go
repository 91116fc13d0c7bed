package user

import (
	"devfolio/portfolio-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginBody struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func UserLogin(c *gin.Context, d *internal.Deps) {
	var data loginBody
	if err := c.ShouldBind(&data); err != nil {
		c.Error(bindError(err))
		return
	}

	u, err := d.Accounts.Login(c.Request.Context(), data.Email, data.Password)
	if err != nil {
		c.Error(err)
		return
	}

	zap.L().Debug("User logged in", zap.String("userID", u.ID), zap.String("requestID", c.GetString("requestID")))
	sendToken(c, d, u, http.StatusOK, "Logged in Successfully")
}

func UserLogout(c *gin.Context, d *internal.Deps) {
	clearToken(c, d)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged Out",
	})
}
