package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/social-service/internal/domain"
	"github.com/prperemyshlev/social-service/internal/service"
	"go.uber.org/zap"
)

const (
	ctxUserID  = "user_id"
	ctxPayload = "token_payload"
)

// bearerToken extracts the token from "Authorization: Bearer <token>".
// present is false when the header is absent.
func bearerToken(c *gin.Context) (token string, present bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}

func authenticate(c *gin.Context, authService service.AuthService, logger *zap.Logger, token string) bool {
	payload, err := authService.ValidateAccessToken(token)
	if err != nil {
		respondError(c, logger, err)
		return false
	}

	c.Set(ctxUserID, payload.UserID)
	c.Set(ctxPayload, payload)
	return true
}

// AuthMiddleware validates the access token and adds its payload to the context
func AuthMiddleware(authService service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := bearerToken(c)
		if !authenticate(c, authService, logger, token) {
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware authenticates only when an Authorization header is
// sent; requests without one continue as guests.
func OptionalAuthMiddleware(authService service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present := bearerToken(c)
		if present && !authenticate(c, authService, logger, token) {
			return
		}
		c.Next()
	}
}

// VerifiedUserMiddleware requires a Verified snapshot in the access token.
// Must run after AuthMiddleware.
func VerifiedUserMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload := tokenPayload(c)
		if payload == nil {
			respondError(c, logger, domain.NewTokenMissingError(domain.TokenAccess))
			return
		}
		if payload.Verify != domain.Verified {
			respondError(c, logger, domain.ErrUserNotVerified)
			return
		}
		c.Next()
	}
}

// VerifiedIfPresentMiddleware lets guests through but holds signed-in
// callers to VerifiedUserMiddleware's rule. Must run after OptionalAuthMiddleware.
func VerifiedIfPresentMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if payload := tokenPayload(c); payload != nil && payload.Verify != domain.Verified {
			respondError(c, logger, domain.ErrUserNotVerified)
			return
		}
		c.Next()
	}
}

func tokenPayload(c *gin.Context) *domain.TokenPayload {
	v, ok := c.Get(ctxPayload)
	if !ok {
		return nil
	}
	payload, _ := v.(*domain.TokenPayload)
	return payload
}

// currentUserID is empty for guests
func currentUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}
