package middleware

import (
	"context"
	"devfolio/portfolio-api/config"
	"devfolio/portfolio-api/internal/apperror"
	"devfolio/portfolio-api/internal/model"
	"devfolio/portfolio-api/pkg/security"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RequestID string `json:"requestID"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()

	var e envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(NewRequestIDMiddleware(), NewErrorMiddleware())
	r.Use(mw...)
	return r
}

func TestErrorMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", apperror.Validation("Bad input"), http.StatusBadRequest, "Bad input"},
		{"duplicate", apperror.DuplicateEmail(), http.StatusBadRequest, "Email is already registered!"},
		{"unknown", errors.New("db exploded"), http.StatusInternalServerError, "Internal server error"},
		{"dependency", apperror.Dependency("Mail down", errors.New("smtp")), http.StatusBadGateway, "Mail down"},
		{"body too large", fmt.Errorf("bind, %w", &http.MaxBytesError{Limit: 1}), http.StatusRequestEntityTooLarge, "Request body size exceeds limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine()
			r.GET("/", func(c *gin.Context) { c.Error(tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.status, w.Code)

			e := decode(t, w)
			assert.False(t, e.Success)
			assert.Equal(t, tt.message, e.Message)
			assert.Equal(t, w.Header().Get(requestIDHeader), e.RequestID)
			assert.NotEmpty(t, e.RequestID)
		})
	}
}

func TestRequestID(t *testing.T) {
	r := newEngine()
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("requestID")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Body.String(), 36)
	assert.Equal(t, w.Body.String(), w.Header().Get(requestIDHeader))

	const forwarded = "6f1c2a0e-8d7b-4c3e-9a51-2b7d4e9f0c11"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, forwarded)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, forwarded, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "not a uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not a uuid", w.Body.String())
}

func TestErrorMiddlewareKeepsWrittenResponse(t *testing.T) {
	r := newEngine()
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusTeapot, "short and stout")
		c.Error(errors.New("late"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "short and stout", w.Body.String())
}

type fakeUsers map[string]*model.User

func (f fakeUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}

	if id == "broken" {
		return nil, errors.New("connection reset")
	}

	return nil, apperror.NotFound("User not found")
}

func newAuthEngine(t *testing.T) (*gin.Engine, *security.SessionIssuer) {
	t.Helper()

	sessions, err := security.NewSessionIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	users := fakeUsers{"u1": {ID: "u1", Email: "a@x.com"}}

	r := newEngine()
	r.GET("/me", NewAuthMiddleware(sessions, users), func(c *gin.Context) {
		u, ok := CurrentUser(c)
		require.True(t, ok)

		c.JSON(http.StatusOK, gin.H{"id": u.ID, "userID": c.GetString(UserIDKey)})
	})

	return r, sessions
}

func TestAuthMiddleware(t *testing.T) {
	r, sessions := newAuthEngine(t)

	valid, _, err := sessions.Issue("u1")
	require.NoError(t, err)
	deleted, _, err := sessions.Issue("gone")
	require.NoError(t, err)
	broken, _, err := sessions.Issue("broken")
	require.NoError(t, err)

	other, err := security.NewSessionIssuer("other-secret", time.Hour)
	require.NoError(t, err)
	forged, _, err := other.Issue("u1")
	require.NoError(t, err)

	tests := []struct {
		name    string
		prepare func(*http.Request)
		status  int
		message string
	}{
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: valid}) }, http.StatusOK, ""},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) }, http.StatusOK, ""},
		{"missing", func(*http.Request) {}, http.StatusUnauthorized, "User is not authenticated"},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+valid) }, http.StatusUnauthorized, "User is not authenticated"},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, "JSON Web Token is invalid. Try again!"},
		{"forged", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+forged) }, http.StatusUnauthorized, "JSON Web Token is invalid. Try again!"},
		{"deleted user", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+deleted) }, http.StatusUnauthorized, "User is not authenticated"},
		{"store failure", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+broken) }, http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.prepare(req)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"id":"u1","userID":"u1"}`, w.Body.String())
				return
			}

			assert.Equal(t, tt.message, decode(t, w).Message)
		})
	}
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	sessions, err := security.NewSessionIssuer("test-secret", time.Millisecond)
	require.NoError(t, err)

	tokenStr, _, err := sessions.Issue("u1")
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	r := newEngine()
	r.GET("/me", NewAuthMiddleware(sessions, fakeUsers{"u1": {ID: "u1"}}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tokenStr})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "JSON Web Token has expired. Try again!", decode(t, w).Message)
}

func TestBodySizeLimiter(t *testing.T) {
	r := newEngine(BodySizeLimiter(8))
	r.POST("/", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"a very long value"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	// Chunked bodies have no Content-Length and hit the reader limit instead
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"a very long value"}`))
	req.ContentLength = -1

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter(t *testing.T) {
	r := newEngine(RateLimiterMiddleware(t.Context(), RateLimiterConfig{RequestsPerSecond: 1, Burst: 2}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	var codes []int
	for range 3 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterCleanupStopsWithContext(t *testing.T) {
	l := &rateLimiter{
		cfg:      RateLimiterConfig{RequestsPerSecond: 1, Burst: 1, CleanupInterval: 10 * time.Millisecond, TTL: time.Millisecond},
		visitors: make(map[string]*visitor),
	}
	l.get("10.0.0.1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.cleanup(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.visitors) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup kept running after cancel")
	}
}

func TestTurnstileDisabled(t *testing.T) {
	r := newEngine(NewTurnstileMiddleware(config.TurnstileConfig{}))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTurnstile(t *testing.T) {
	siteverify := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "turnstile-secret", body["secret"])

		json.NewEncoder(w).Encode(turnstileResponse{Success: body["response"] == "good"})
	}))
	defer siteverify.Close()

	old := turnstileVerifyURL
	turnstileVerifyURL = siteverify.URL
	defer func() { turnstileVerifyURL = old }()

	r := newEngine(NewTurnstileMiddleware(config.TurnstileConfig{Enabled: true, SecretToken: "turnstile-secret"}))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		token  string
		status int
	}{
		{"good", http.StatusOK},
		{"bad", http.StatusUnauthorized},
		{"", http.StatusBadRequest},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if tt.token != "" {
			req.Header.Set(turnstileHeader, tt.token)
		}

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tt.status, w.Code, "token %q", tt.token)
	}
}
