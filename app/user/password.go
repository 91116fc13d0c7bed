package user

import (
	"devfolio/portfolio-api/internal"
	"devfolio/portfolio-api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type forgotBody struct {
	Email string `json:"email" form:"email"`
}

type resetBody struct {
	Password           string `json:"password" form:"password"`
	ConfirmNewPassword string `json:"confirmNewPassword" form:"confirmNewPassword"`
}

// PasswordForgot answers the same way for known and unknown emails
func PasswordForgot(c *gin.Context, d *internal.Deps) {
	var data forgotBody
	if err := c.ShouldBind(&data); err != nil {
		c.Error(bindError(err))
		return
	}

	if err := d.Reset.Forgot(c.Request.Context(), data.Email); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": service.ForgotMessage,
	})
}

func PasswordReset(c *gin.Context, d *internal.Deps) {
	var data resetBody
	if err := c.ShouldBind(&data); err != nil {
		c.Error(bindError(err))
		return
	}

	u, err := d.Reset.Reset(c.Request.Context(), c.Param("token"), data.Password, data.ConfirmNewPassword)
	if err != nil {
		c.Error(err)
		return
	}

	sendToken(c, d, u, http.StatusOK, "Password Reset Successfully!")
}
