package internal

import (
	"devfolio/portfolio-api/config"
	"devfolio/portfolio-api/internal/service"
	"devfolio/portfolio-api/internal/store"
	"devfolio/portfolio-api/pkg/security"

	"gorm.io/gorm"
)

type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Users    *store.UserStore
	Sessions *security.SessionIssuer
	Accounts *service.Accounts
	Reset    *service.PasswordReset
}
