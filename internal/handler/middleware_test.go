package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/social-service/internal/domain"
	"github.com/prperemyshlev/social-service/internal/service"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeAuthService struct {
	service.AuthService
	payloads map[string]*domain.TokenPayload
}

func (f *fakeAuthService) ValidateAccessToken(token string) (*domain.TokenPayload, error) {
	if token == "" {
		return nil, domain.NewTokenMissingError(domain.TokenAccess)
	}
	payload, ok := f.payloads[token]
	if !ok {
		return nil, domain.NewTokenInvalidError(errors.New("token is malformed"))
	}
	return payload, nil
}

func newFakeAuth() *fakeAuthService {
	return &fakeAuthService{payloads: map[string]*domain.TokenPayload{
		"verified":   {UserID: "u-verified", Kind: domain.TokenAccess, Verify: domain.Verified},
		"unverified": {UserID: "u-unverified", Kind: domain.TokenAccess, Verify: domain.Unverified},
	}}
}

func serve(router *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func echoUser(c *gin.Context) {
	c.String(http.StatusOK, currentUserID(c))
}

func TestAuthMiddlewares(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	auth := newFakeAuth()

	router := gin.New()
	router.GET("/auth", AuthMiddleware(auth, logger), echoUser)
	router.GET("/verified", AuthMiddleware(auth, logger), VerifiedUserMiddleware(logger), echoUser)
	router.GET("/optional", OptionalAuthMiddleware(auth, logger), echoUser)
	router.GET("/optional-verified", OptionalAuthMiddleware(auth, logger), VerifiedIfPresentMiddleware(logger), echoUser)

	tests := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{"auth without header", "/auth", "", http.StatusUnauthorized, ""},
		{"auth wrong scheme", "/auth", "Basic verified", http.StatusUnauthorized, ""},
		{"auth bad token", "/auth", "Bearer nope", http.StatusUnauthorized, ""},
		{"auth ok", "/auth", "Bearer unverified", http.StatusOK, "u-unverified"},
		{"verified rejects unverified", "/verified", "Bearer unverified", http.StatusForbidden, ""},
		{"verified ok", "/verified", "bearer verified", http.StatusOK, "u-verified"},
		{"optional guest", "/optional", "", http.StatusOK, ""},
		{"optional user", "/optional", "Bearer verified", http.StatusOK, "u-verified"},
		{"optional bad token", "/optional", "Bearer nope", http.StatusUnauthorized, ""},
		{"optional verified guest", "/optional-verified", "", http.StatusOK, ""},
		{"optional verified user", "/optional-verified", "Bearer verified", http.StatusOK, "u-verified"},
		{"optional verified rejects unverified", "/optional-verified", "Bearer unverified", http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.header != "" {
				header.Set("Authorization", tt.header)
			}

			w := serve(router, http.MethodGet, tt.path, header)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestVerifiedUserMiddleware_WithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/verified", VerifiedUserMiddleware(zap.NewNop()), echoUser)

	w := serve(router, http.MethodGet, "/verified", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type fakeLimiter struct {
	result *service.RateLimitResult
	err    error
	keys   []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (*service.RateLimitResult, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return nil, f.err
	}
	res := *f.result
	res.Limit = limit
	return &res, nil
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(limiter Limiter) *gin.Engine {
		router := gin.New()
		router.POST("/login", RateLimitMiddleware(limiter, 10, time.Minute, RouteAndIPKey, zap.NewNop()), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return router
	}

	t.Run("allowed", func(t *testing.T) {
		limiter := &fakeLimiter{result: &service.RateLimitResult{Allowed: true, Remaining: 9}}
		header := http.Header{}
		header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

		w := serve(newRouter(limiter), http.MethodPost, "/login", header)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "9", w.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, []string{"/login:203.0.113.7"}, limiter.keys)
	})

	t.Run("rejected", func(t *testing.T) {
		limiter := &fakeLimiter{result: &service.RateLimitResult{RetryAfter: 1500 * time.Millisecond}}

		w := serve(newRouter(limiter), http.MethodPost, "/login", nil)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "2", w.Header().Get("Retry-After"))
	})

	t.Run("limiter error lets request through", func(t *testing.T) {
		limiter := &fakeLimiter{err: errors.New("redis down")}

		w := serve(newRouter(limiter), http.MethodPost, "/login", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	})
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", domain.NewValidationError("Invalid tweet id"), http.StatusBadRequest, "Invalid tweet id"},
		{"not found", domain.ErrUserNotFound, http.StatusNotFound, "User not found"},
		{"conflict", domain.NewConflictError("Email already exists"), http.StatusConflict, "Email already exists"},
		{"unauthorized", domain.NewTokenMissingError(domain.TokenRefresh), http.StatusUnauthorized, "Refresh token is required"},
		{"forbidden", domain.ErrUserNotVerified, http.StatusForbidden, domain.ErrUserNotVerified.Message},
		{"wrapped", errors.Join(errors.New("ctx"), domain.ErrUserNotFound), http.StatusNotFound, "User not found"},
		{"plain error", errors.New("pq: connection reset"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, zap.NewNop(), tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
			assert.NotContains(t, w.Body.String(), "pq:")
			assert.True(t, c.IsAborted())
		})
	}
}
