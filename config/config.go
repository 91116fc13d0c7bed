// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDrivers   = []string{"sqlite", "postgres"}
)

// ErrMissingSecret is returned when no JWT signing secret is configured.
// The application can't issue or verify sessions without one.
var ErrMissingSecret = errors.New("jwt.secret is not set")

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Host      HostConfig      `mapstructure:"host"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Cookie    CookieConfig    `mapstructure:"cookie"`
	Reset     ResetConfig     `mapstructure:"reset"`
	Mail      MailConfig      `mapstructure:"mail"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Security  SecurityConfig  `mapstructure:"security"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Portfolio PortfolioConfig `mapstructure:"portfolio"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

type HostConfig struct {
	Port int      `mapstructure:"port"`
	CORS []string `mapstructure:"cors"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	ExpireDays int    `mapstructure:"expire_days"`
}

type CookieConfig struct {
	ExpireDays int `mapstructure:"expire_days"`
}

type ResetConfig struct {
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	DashboardURL    string        `mapstructure:"dashboard_url"`
}

type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
	TLS      bool   `mapstructure:"tls"`
}

type StorageConfig struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	// Custom S3 endpoint, e.g. Cloudflare R2 or MinIO. Empty means AWS.
	Endpoint string `mapstructure:"endpoint"`
	// Prefix used to build the public URL of uploaded objects
	PublicURL string `mapstructure:"public_url"`
}

type UploadConfig struct {
	MaxSize      int64    `mapstructure:"max_size"` // In MiB in the config, bytes after Load
	AllowedTypes []string `mapstructure:"allowed_types"`
}

type SecurityConfig struct {
	RateLimit int             `mapstructure:"rate_limit"`
	Turnstile TurnstileConfig `mapstructure:"turnstile"`
}

type TurnstileConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	SecretToken string `mapstructure:"secret_token"`
}

type CacheConfig struct {
	RedisAddr string `mapstructure:"redis_addr"`
}

type PortfolioConfig struct {
	// The profile served on the public portfolio endpoint. When empty the
	// first registered user is served.
	UserID string `mapstructure:"user_id"`
}

// IsProduction reports whether cookies should be marked secure
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// SessionTTL is the lifetime of a session token
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.JWT.ExpireDays) * 24 * time.Hour
}

// CookieMaxAge is the lifetime of the session cookie in seconds
func (c *Config) CookieMaxAge() int {
	return c.Cookie.ExpireDays * 24 * 60 * 60
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// RegisterFlags adds the command line flags understood by Load to fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a config.toml file")
	fs.Int("host.port", 0, "Port to listen on")
	fs.String("app.log_level", "", "Log level (debug, info, warn, error, fatal)")
}

// Load reads the configuration from flags, environment variables and an
// optional config.toml file, in that order of precedence, and validates it.
// A missing JWT secret is a fatal configuration error.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetConfigType("toml")

	var path string
	if fs != nil {
		path, _ = fs.GetString("config")

		fs.VisitAll(func(f *pflag.Flag) {
			if f.Name != "config" && f.Changed {
				v.BindPFlag(f.Name, f)
			}
		})
	}

	// SetConfigName resets an explicit file, so only one of them is set
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.env", "APP_ENV", "NODE_ENV")
	v.BindEnv("app.log_level", "APP_LOG_LEVEL")

	v.BindEnv("host.port", "HOST_PORT", "PORT")
	v.BindEnv("host.cors", "HOST_CORS")

	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.dsn", "DATABASE_DSN")

	v.BindEnv("jwt.secret", "JWT_SECRET", "JWT_SECRET_KEY")
	v.BindEnv("jwt.expire_days", "JWT_EXPIRE_DAYS")
	v.BindEnv("cookie.expire_days", "COOKIE_EXPIRE_DAYS", "COOKIE_EXPIRES")

	v.BindEnv("reset.token_ttl", "RESET_TOKEN_TTL")
	v.BindEnv("reset.cleanup_interval", "RESET_CLEANUP_INTERVAL")
	v.BindEnv("reset.dashboard_url", "RESET_DASHBOARD_URL", "DASHBOARD_URL")

	v.BindEnv("mail.host", "MAIL_HOST", "SMTP_HOST")
	v.BindEnv("mail.port", "MAIL_PORT", "SMTP_PORT")
	v.BindEnv("mail.username", "MAIL_USERNAME", "SMTP_MAIL")
	v.BindEnv("mail.password", "MAIL_PASSWORD", "SMTP_PASSWORD")
	v.BindEnv("mail.from", "MAIL_FROM", "SMTP_MAIL")
	v.BindEnv("mail.from_name", "MAIL_FROM_NAME")
	v.BindEnv("mail.tls", "MAIL_TLS")

	v.BindEnv("storage.access_key_id", "STORAGE_ACCESS_KEY_ID")
	v.BindEnv("storage.secret_access_key", "STORAGE_SECRET_ACCESS_KEY")
	v.BindEnv("storage.region", "STORAGE_REGION")
	v.BindEnv("storage.bucket", "STORAGE_BUCKET")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")

	v.BindEnv("upload.max_size", "UPLOAD_MAX_SIZE")
	v.BindEnv("upload.allowed_types", "UPLOAD_ALLOWED_TYPES")

	v.BindEnv("security.rate_limit", "SECURITY_RATE_LIMIT")
	v.BindEnv("security.turnstile.enabled", "TURNSTILE_ENABLED")
	v.BindEnv("security.turnstile.secret_token", "TURNSTILE_SECRET_TOKEN")

	v.BindEnv("cache.redis_addr", "CACHE_REDIS_ADDR")
	v.BindEnv("portfolio.user_id", "PORTFOLIO_USER_ID")

	//
	// Defaults
	//
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 4000)
	v.SetDefault("host.cors", []string{"http://localhost:5173"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.db")

	v.SetDefault("jwt.expire_days", 7)
	v.SetDefault("cookie.expire_days", 7)

	v.SetDefault("reset.token_ttl", 15*time.Minute)
	v.SetDefault("reset.cleanup_interval", time.Hour)
	v.SetDefault("reset.dashboard_url", "http://localhost:5173")

	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.tls", true)

	v.SetDefault("storage.region", "auto")

	v.SetDefault("upload.max_size", 5)
	v.SetDefault("upload.allowed_types", []string{"image/png", "image/jpeg", "image/webp", "image/gif", "image/svg+xml", "application/pdf"})

	v.SetDefault("security.rate_limit", 10)
	v.SetDefault("security.turnstile.enabled", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config, %w", err)
	}

	// Comma separated lists from the environment arrive as a single element
	cfg.Host.CORS = splitList(cfg.Host.CORS)
	cfg.Upload.AllowedTypes = splitList(cfg.Upload.AllowedTypes)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.Upload.MaxSize <<= 20
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("%w, set it as the JWT_SECRET environment variable or in config.toml. Here's a random one you can use:\n\n%s", ErrMissingSecret, genSecret())
	}

	if !slices.Contains(validLogLevels, c.App.LogLevel) {
		return errors.New("invalid log level provided")
	}

	if c.Host.Port <= 0 {
		return errors.New("invalid port provided")
	}

	if len(c.Host.CORS) == 0 {
		return errors.New("host.cors needs at least one origin")
	}

	if !slices.Contains(validDrivers, c.Database.Driver) {
		return errors.New("invalid database driver provided")
	}

	if c.Database.DSN == "" {
		return errors.New("database.dsn can't be empty")
	}

	if c.JWT.ExpireDays <= 0 {
		return errors.New("jwt.expire_days must be bigger than 0")
	}

	if c.Cookie.ExpireDays <= 0 {
		return errors.New("cookie.expire_days must be bigger than 0")
	}

	if c.Reset.TokenTTL <= 0 {
		return errors.New("reset.token_ttl must be bigger than 0")
	}

	if c.Reset.CleanupInterval <= 0 {
		return errors.New("reset.cleanup_interval must be bigger than 0")
	}

	if c.Upload.MaxSize <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if c.Security.RateLimit <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if c.Security.Turnstile.Enabled && c.Security.Turnstile.SecretToken == "" {
		return errors.New("turnstile secret token is missing")
	}

	return nil
}

func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}

	return out
}
