package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prperemyshlev/social-service/internal/domain"
	"github.com/prperemyshlev/social-service/internal/utils"
	"go.uber.org/zap"
)

// issuedPair is a signed token pair plus the session record for its refresh token
type issuedPair struct {
	tokens  *domain.TokenPair
	session *domain.RefreshToken
}

// signPair signs an access and a refresh token carrying the same verify
// snapshot. A zero refreshExpiresAt means the configured refresh lifetime.
func (s *authService) signPair(userID string, verify domain.VerifyStatus, refreshExpiresAt time.Time) (*issuedPair, error) {
	accessToken, err := s.codec.Sign(domain.TokenPayload{
		UserID: userID,
		Kind:   domain.TokenAccess,
		Verify: verify,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	now := s.now()
	if refreshExpiresAt.IsZero() {
		refreshExpiresAt = now.Add(s.codec.Expiry(domain.TokenRefresh)).Truncate(time.Second)
	}

	refreshToken, err := s.codec.Sign(domain.TokenPayload{
		UserID:    userID,
		Kind:      domain.TokenRefresh,
		Verify:    verify,
		ExpiresAt: refreshExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &issuedPair{
		tokens: &domain.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		},
		session: &domain.RefreshToken{
			UserID:    userID,
			TokenHash: utils.HashToken(refreshToken),
			ExpiresAt: refreshExpiresAt,
			CreatedAt: now,
		},
	}, nil
}

// startSession issues a fresh pair and replaces the user's session with it
func (s *authService) startSession(ctx context.Context, userID string, verify domain.VerifyStatus) (*domain.TokenPair, error) {
	pair, err := s.signPair(userID, verify, time.Time{})
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.Upsert(ctx, pair.session); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return pair.tokens, nil
}

// issueSingleUse signs an email-verify or forgot-password token and returns
// it with the hash that gets stored on the user record.
func (s *authService) issueSingleUse(kind domain.TokenKind, userID string, verify domain.VerifyStatus) (string, string, error) {
	token, err := s.codec.Sign(domain.TokenPayload{
		UserID: userID,
		Kind:   kind,
		Verify: verify,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate %s token: %w", kind, err)
	}
	return token, utils.HashToken(token), nil
}

// deliver hands a single-use token to the sender. Failures are only logged.
func (s *authService) deliver(ctx context.Context, kind domain.TokenKind, user *domain.User, token string) {
	if s.sender == nil {
		return
	}
	err := s.sender.Send(ctx, TokenDelivery{
		Kind:   kind,
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Token:  token,
	})
	if err != nil {
		s.logger.Warn("token delivery failed",
			zap.String("kind", string(kind)),
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}
}
