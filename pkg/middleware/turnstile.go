package middleware

import (
	"bytes"
	"devfolio/portfolio-api/config"
	"devfolio/portfolio-api/internal/apperror"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const turnstileHeader = "TurnstileToken"

var turnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

type turnstileResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// NewTurnstileMiddleware checks the Cloudflare turnstile token sent in the
// TurnstileToken header. It lets everything through when turnstile is
// disabled.
func NewTurnstileMiddleware(cfg config.TurnstileConfig) gin.HandlerFunc {
	client := &http.Client{Timeout: 10 * time.Second}

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		token := c.GetHeader(turnstileHeader)
		if token == "" {
			Abort(c, apperror.Validation("Missing or invalid turnstile token"))
			return
		}

		res, err := verifyTurnstile(c, client, cfg.SecretToken, token)
		if err != nil {
			Abort(c, apperror.Dependency("Failed to verify turnstile token", err))
			return
		}

		if !res.Success {
			zap.L().Debug("Turnstile rejected token", zap.Strings("errorCodes", res.ErrorCodes))
			Abort(c, apperror.Unauthenticated("Turnstile verification failed"))
			return
		}

		c.Next()
	}
}

func verifyTurnstile(c *gin.Context, client *http.Client, secret, token string) (*turnstileResponse, error) {
	body, err := json.Marshal(gin.H{
		"secret":   secret,
		"response": token,
		"remoteip": c.ClientIP(),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, turnstileVerifyURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("siteverify returned %d", resp.StatusCode)
	}

	var res turnstileResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, errors.Join(errors.New("failed to decode siteverify response"), err)
	}

	return &res, nil
}
