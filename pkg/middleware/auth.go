package middleware

import (
	"context"
	"devfolio/portfolio-api/internal/apperror"
	"devfolio/portfolio-api/internal/model"
	"devfolio/portfolio-api/pkg/security"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

// Keys the auth middleware stores on the gin context
const (
	UserKey   = "user"
	UserIDKey = "userID"
)

// SessionCookie is the cookie carrying the session token
const SessionCookie = "token"

var (
	errNotAuthenticated = apperror.Unauthenticated("User is not authenticated")
	errTokenExpired     = apperror.Unauthenticated("JSON Web Token has expired. Try again!")
	errTokenInvalid     = apperror.Unauthenticated("JSON Web Token is invalid. Try again!")
)

type SessionVerifier interface {
	Verify(token string) (string, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewAuthMiddleware only lets requests through that carry a valid session
// token for an existing user. The token is read from the token cookie or,
// failing that, an Authorization: Bearer header. The resolved user is stored
// under UserKey and its ID under UserIDKey.
func NewAuthMiddleware(sessions SessionVerifier, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := sessionToken(c)
		if tokenStr == "" {
			Abort(c, errNotAuthenticated)
			return
		}

		userID, err := sessions.Verify(tokenStr)
		if err != nil {
			if errors.Is(err, security.ErrTokenExpired) {
				Abort(c, errTokenExpired)
				return
			}

			Abort(c, errTokenInvalid)
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			// The account is gone, the token outlived it
			if errors.Is(err, apperror.ErrNotFound) {
				Abort(c, errNotAuthenticated)
				return
			}

			Abort(c, err)
			return
		}

		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ID)
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if tokenStr, err := c.Cookie(SessionCookie); err == nil && tokenStr != "" {
		return tokenStr
	}

	scheme, tokenStr, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(tokenStr)
}

// CurrentUser returns the user the auth middleware resolved for c
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}

	u, ok := v.(*model.User)
	return u, ok
}
