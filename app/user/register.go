package user

import (
	"devfolio/portfolio-api/internal"
	"devfolio/portfolio-api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type profileBody struct {
	FullName     string `json:"fullName" form:"fullName"`
	Email        string `json:"email" form:"email"`
	Phone        string `json:"phone" form:"phone"`
	AboutMe      string `json:"aboutMe" form:"aboutMe"`
	PortfolioURL string `json:"portfolioURL" form:"portfolioURL"`
	GithubURL    string `json:"githubURL" form:"githubURL"`
	InstagramURL string `json:"instagramURL" form:"instagramURL"`
	TwitterURL   string `json:"twitterURL" form:"twitterURL"`
	LinkedInURL  string `json:"linkedInURL" form:"linkedInURL"`
	FacebookURL  string `json:"facebookURL" form:"facebookURL"`
}

func (b profileBody) profile() service.Profile {
	return service.Profile{
		FullName:     b.FullName,
		Email:        b.Email,
		Phone:        b.Phone,
		AboutMe:      b.AboutMe,
		PortfolioURL: b.PortfolioURL,
		GithubURL:    b.GithubURL,
		InstagramURL: b.InstagramURL,
		TwitterURL:   b.TwitterURL,
		LinkedInURL:  b.LinkedInURL,
		FacebookURL:  b.FacebookURL,
	}
}

type registerBody struct {
	profileBody
	Password string `json:"password" form:"password"`
}

func UserRegister(c *gin.Context, d *internal.Deps) {
	var data registerBody
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

	u, err := d.Accounts.Register(c.Request.Context(), service.RegisterInput{
		Profile:  data.profile(),
		Password: data.Password,
		Avatar:   avatar,
		Resume:   resume,
	})
	if err != nil {
		c.Error(err)
		return
	}

	sendToken(c, d, u, http.StatusCreated, "User registered successfully")
}
