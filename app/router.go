package app

import (
	"context"
	"devfolio/portfolio-api/app/root"
	"devfolio/portfolio-api/app/user"
	"devfolio/portfolio-api/aws"
	"devfolio/portfolio-api/config"
	"devfolio/portfolio-api/db"
	"devfolio/portfolio-api/internal"
	"devfolio/portfolio-api/internal/service"
	"devfolio/portfolio-api/internal/store"
	"devfolio/portfolio-api/pkg/middleware"
	"devfolio/portfolio-api/pkg/security"
	"fmt"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Bodies of requests without file uploads
const maxBodySize = 1 << 20

// NewRouter wires every dependency from cfg and returns the ready engine.
// Background jobs run until ctx is cancelled.
func NewRouter(ctx context.Context, cfg *config.Config) (*gin.Engine, error) {
	conn, err := db.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	sessions, err := security.NewSessionIssuer(cfg.JWT.Secret, cfg.SessionTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session issuer, %w", err)
	}

	s3, err := aws.NewS3(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
	}

	mailer, err := service.NewSMTPMailer(cfg.Mail)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer, %w", err)
	}

	cacheStore, err := NewCacheStore(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	users := store.NewUserStore(conn, security.NewHasher(), cfg.Reset.TokenTTL)
	images := service.NewS3ImageHost(s3, cfg.Upload.MaxSize, cfg.Upload.AllowedTypes)

	d := &internal.Deps{
		Config:   cfg,
		DB:       conn,
		Users:    users,
		Sessions: sessions,
		Accounts: service.NewAccounts(users, images, cfg.Portfolio.UserID),
		Reset:    service.NewPasswordReset(users, mailer, cfg.Reset.DashboardURL),
	}

	service.TokenCleanup(ctx, cfg.Reset.CleanupInterval, users)

	return NewEngine(ctx, d, cacheStore), nil
}

// NewEngine mounts every route on a new gin engine. Middleware housekeeping
// stops when ctx is cancelled.
func NewEngine(ctx context.Context, d *internal.Deps, cacheStore persist.CacheStore) *gin.Engine {
	cfg := d.Config
	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     cfg.Host.CORS,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		ginzap.RecoveryWithZap(zap.L(), true),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString(middleware.UserIDKey); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
		middleware.NewErrorMiddleware(),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = cfg.Upload.MaxSize

	auth := middleware.NewAuthMiddleware(d.Sessions, d.Users)
	turnstile := middleware.NewTurnstileMiddleware(cfg.Security.Turnstile)
	rateLimiter := middleware.RateLimiterMiddleware(ctx, middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.Security.RateLimit,
		Burst:             cfg.Security.RateLimit * 2,
	})

	// Two files plus the form fields
	maxUploadBody := 2*cfg.Upload.MaxSize + maxBodySize

	main := router.Group("/api", rateLimiter)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", root.Heartbeat)

		// GET /api/validate		-> Validates a session token
		main.GET("/validate", auth, root.Validate)
	}

	u := main.Group("/v1/user")
	{
		// POST /api/v1/user/register		-> Registers a new user with avatar and resume
		u.POST("/register", middleware.BodySizeLimiter(maxUploadBody), func(c *gin.Context) { user.UserRegister(c, d) })

		// POST /api/v1/user/login		-> Logs in a user and sets the session cookie
		u.POST("/login", middleware.BodySizeLimiter(maxBodySize), func(c *gin.Context) { user.UserLogin(c, d) })

		// GET /api/v1/user/logout		-> Clears the session cookie
		u.GET("/logout", auth, func(c *gin.Context) { user.UserLogout(c, d) })

		// GET /api/v1/user/me			-> Returns the logged in user
		u.GET("/me", auth, func(c *gin.Context) { user.UserFetch(c, d) })

		// PUT /api/v1/user/update/me		-> Updates the profile of the logged in user
		u.PUT("/update/me", auth, middleware.BodySizeLimiter(maxUploadBody), func(c *gin.Context) { user.UserUpdate(c, d) })

		// PUT /api/v1/user/update/password	-> Changes the password of the logged in user
		u.PUT("/update/password", auth, middleware.BodySizeLimiter(maxBodySize), func(c *gin.Context) { user.UserUpdatePassword(c, d) })

		// GET /api/v1/user/me/portfolio		-> Public profile for the portfolio site
		u.GET("/me/portfolio", cache.CacheByRequestURI(cacheStore, 30*time.Second), func(c *gin.Context) { user.UserPortfolio(c, d) })

		// POST /api/v1/user/password/forgot	-> Mails a password reset link
		u.POST("/password/forgot", turnstile, middleware.BodySizeLimiter(maxBodySize), func(c *gin.Context) { user.PasswordForgot(c, d) })

		// PUT /api/v1/user/password/reset/:token	-> Sets a new password with a reset token
		u.PUT("/password/reset/:token", middleware.BodySizeLimiter(maxBodySize), func(c *gin.Context) { user.PasswordReset(c, d) })
	}

	return router
}
