package user

import (
	"devfolio/portfolio-api/internal"
	"devfolio/portfolio-api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type passwordBody struct {
	CurrentPassword    string `json:"currentPassword" form:"currentPassword"`
	NewPassword        string `json:"newPassword" form:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword" form:"confirmNewPassword"`
}

func UserUpdate(c *gin.Context, d *internal.Deps) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	var data profileBody
	if err := c.ShouldBind(&data); err != nil {
		c.Error(bindError(err))
		return
	}

	avatar, err := formFile(c, "avatar")
	if err != nil {
		c.Error(err)
		return
	}

	resume, err := formFile(c, "resume")
	if err != nil {
		c.Error(err)
		return
	}

	updated, err := d.Accounts.UpdateProfile(c.Request.Context(), u, service.ProfileInput{
		Profile: data.profile(),
		Avatar:  avatar,
		Resume:  resume,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile Updated Successfully",
		"user":    updated,
	})
}

func UserUpdatePassword(c *gin.Context, d *internal.Deps) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	var data passwordBody
	if err := c.ShouldBind(&data); err != nil {
		c.Error(bindError(err))
		return
	}

	err := d.Accounts.ChangePassword(c.Request.Context(), u, data.CurrentPassword, data.NewPassword, data.ConfirmNewPassword)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password Updated Successfully!",
	})
}
