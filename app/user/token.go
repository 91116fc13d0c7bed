package user

import (
	"devfolio/portfolio-api/internal"
	"devfolio/portfolio-api/internal/apperror"
	"devfolio/portfolio-api/internal/model"
	"devfolio/portfolio-api/pkg/middleware"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
)

// sendToken issues a session for u, sets it as an HttpOnly cookie and also
// returns it in the body
func sendToken(c *gin.Context, d *internal.Deps, u *model.User, status int, message string) {
	tokenStr, _, err := d.Sessions.Issue(u.ID)
	if err != nil {
		c.Error(err)
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, tokenStr, d.Config.CookieMaxAge(), "/", "", d.Config.IsProduction(), true)
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"user":    u,
		"token":   tokenStr,
	})
}

func clearToken(c *gin.Context, d *internal.Deps) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", d.Config.IsProduction(), true)
}

// bindError keeps oversized bodies as they are so they end up as 413, anything
// else is a malformed request
func bindError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return err
	}

	return &apperror.Error{Kind: apperror.KindValidation, Message: "Invalid request body", Err: err}
}

// formFile returns the uploaded file under name or nil if there is none
func formFile(c *gin.Context, name string) (*multipart.FileHeader, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, nil
	}

	fh, err := c.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}

	if err != nil {
		return nil, bindError(err)
	}

	return fh, nil
}

func currentUser(c *gin.Context) (*model.User, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		c.Error(apperror.Unauthenticated("User is not authenticated"))
	}

	return u, ok
}
