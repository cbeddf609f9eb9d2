package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/social-service/internal/domain"
	"github.com/prperemyshlev/social-service/internal/dto"
	"github.com/prperemyshlev/social-service/internal/repository"
	"github.com/prperemyshlev/social-service/internal/utils"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// authService implements AuthService interface
type authService struct {
	userRepo     repository.UserRepository
	tokenRepo    repository.TokenRepository
	providerRepo repository.OAuthProviderRepository
	codec        *utils.TokenCodec
	hasher       utils.PasswordHasher
	sender       TokenSender
	identity     IdentityProvider
	meter        metric.Meter
	metrics      *flowMetrics
	logger       *zap.Logger
	now          func() time.Time
}

// AuthOption configures optional collaborators of the auth service
type AuthOption func(*authService)

// WithIdentityProvider enables OAuthLogin
func WithIdentityProvider(p IdentityProvider) AuthOption {
	return func(s *authService) { s.identity = p }
}

func WithMeter(m metric.Meter) AuthOption {
	return func(s *authService) { s.meter = m }
}

// NewAuthService creates a new auth service
func NewAuthService(
	repos *repository.Repositories,
	codec *utils.TokenCodec,
	hasher utils.PasswordHasher,
	sender TokenSender,
	logger *zap.Logger,
	opts ...AuthOption,
) (AuthService, error) {
	s := &authService{
		userRepo:     repos.User,
		tokenRepo:    repos.Token,
		providerRepo: repos.OAuthProvider,
		codec:        codec,
		hasher:       hasher,
		sender:       sender,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	m, err := newFlowMetrics(s.meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth metrics: %w", err)
	}
	s.metrics = m

	return s, nil
}

// Register creates an unverified account and signs the user in
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (pair *domain.TokenPair, err error) {
	defer func() { s.metrics.record(ctx, "register", err) }()

	dob, err := utils.ParseDate(req.DateOfBirth)
	if err != nil {
		return nil, domain.NewValidationError("Date of birth must be an ISO 8601 date")
	}

	user, token, err := s.createUser(ctx, req.Name, req.Email, req.Password, dob)
	if err != nil {
		return nil, err
	}

	pair, err = s.startSession(ctx, user.ID, user.Verify)
	if err != nil {
		return nil, err
	}

	s.deliver(ctx, domain.TokenEmailVerify, user, token)

	return pair, nil
}

// hashPassword reports input the hasher cannot take as a validation error
func (s *authService) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return "", domain.ErrPasswordTooLong
	}
	return hash, err
}

// createUser stores a new Unverified user with a pending email-verify token
// and returns it together with the plaintext token.
func (s *authService) createUser(ctx context.Context, name, email, password string, dob time.Time) (*domain.User, string, error) {
	email = utils.SanitizeEmail(email)

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, "", domain.ErrEmailAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to check user existence: %w", err)
	}

	passwordHash, err := s.hashPassword(password)
	if err != nil {
		return nil, "", err
	}

	id := uuid.New()
	token, tokenHash, err := s.issueSingleUse(domain.TokenEmailVerify, id.String(), domain.Unverified)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		ID:               id.String(),
		Email:            email,
		Name:             name,
		Username:         defaultUsername(id),
		PasswordHash:     passwordHash,
		Verify:           domain.Unverified,
		EmailVerifyToken: &tokenHash,
		DateOfBirth:      dob,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, "", domain.ErrEmailAlreadyExists
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	return user, token, nil
}

// defaultUsername derives "user" plus 11 hex characters of the id
func defaultUsername(id uuid.UUID) string {
	return "user" + fmt.Sprintf("%x", id[:])[:11]
}

// Login authenticates a user
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (pair *domain.TokenPair, err error) {
	defer func() { s.metrics.record(ctx, "login", err) }()

	user, err := s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrEmailOrPasswordIncorrect
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, req.Password) {
		return nil, domain.ErrEmailOrPasswordIncorrect
	}

	return s.signIn(ctx, user)
}

// signIn records the login and replaces the user's session
func (s *authService) signIn(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to update last login",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}

	return s.startSession(ctx, user.ID, user.Verify)
}

// OAuthLogin signs in through the identity provider, creating the account
// on first use.
func (s *authService) OAuthLogin(ctx context.Context, code string) (result *OAuthResult, err error) {
	defer func() { s.metrics.record(ctx, "oauth_login", err) }()

	if s.identity == nil {
		return nil, domain.NewValidationError("OAuth sign-in is not configured")
	}
	if code == "" {
		return nil, domain.NewValidationError("Authorization code is required")
	}

	identity, err := s.identity.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("oauth code exchange failed",
			zap.String("provider", s.identity.Name()),
			zap.Error(err),
		)
		return nil, domain.ErrOAuthCodeRejected
	}
	if !identity.EmailVerified {
		return nil, domain.ErrProviderEmailUnverified
	}

	user, err := s.linkedUser(ctx, identity)
	if err == nil {
		pair, err := s.signIn(ctx, user)
		if err != nil {
			return nil, err
		}
		return &OAuthResult{Tokens: pair, NewUser: false, Verify: user.Verify}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	user, err = s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(identity.Email))
	switch {
	case err == nil:
		s.linkProvider(ctx, user.ID, identity)
		pair, err := s.signIn(ctx, user)
		if err != nil {
			return nil, err
		}
		return &OAuthResult{Tokens: pair, NewUser: false, Verify: user.Verify}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	name := identity.Name
	if name == "" {
		name = identity.Email
	}
	user, token, err := s.createUser(ctx, name, identity.Email, uuid.NewString(), s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.linkProvider(ctx, user.ID, identity)

	pair, err := s.startSession(ctx, user.ID, user.Verify)
	if err != nil {
		return nil, err
	}
	s.deliver(ctx, domain.TokenEmailVerify, user, token)

	return &OAuthResult{Tokens: pair, NewUser: true, Verify: user.Verify}, nil
}

// linkedUser resolves an identity already linked to an account, so a
// changed provider email still reaches the same user.
func (s *authService) linkedUser(ctx context.Context, identity *domain.OAuthIdentity) (*domain.User, error) {
	if identity.Subject == "" {
		return nil, repository.ErrNotFound
	}

	link, err := s.providerRepo.GetByProvider(ctx, identity.Provider, identity.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get oauth provider: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, link.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get linked user: %w", err)
	}
	return user, nil
}

// linkProvider records the provider identity; an existing link is kept
func (s *authService) linkProvider(ctx context.Context, userID string, identity *domain.OAuthIdentity) {
	if identity.Subject == "" {
		return
	}
	email := identity.Email
	err := s.providerRepo.Create(ctx, &domain.OAuthProvider{
		UserID:         userID,
		Provider:       identity.Provider,
		ProviderUserID: identity.Subject,
		Email:          &email,
	})
	if err != nil && !errors.Is(err, repository.ErrDuplicateOAuthProvider) {
		s.logger.Warn("failed to link oauth provider",
			zap.String("user_id", userID),
			zap.String("provider", identity.Provider),
			zap.Error(err),
		)
	}
}

// Logout ends the session holding refreshToken. Unknown tokens are a no-op.
func (s *authService) Logout(ctx context.Context, refreshToken string) (err error) {
	defer func() { s.metrics.record(ctx, "logout", err) }()

	if _, err := s.codec.Verify(domain.TokenRefresh, refreshToken); err != nil {
		return err
	}

	if err := s.tokenRepo.DeleteByTokenHash(ctx, utils.HashToken(refreshToken)); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	return nil
}

// RefreshToken rotates the session: the presented token stops working and a
// new pair with a renewed verify snapshot is returned. The new refresh token
// keeps the old expiry.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (pair *domain.TokenPair, err error) {
	defer func() { s.metrics.record(ctx, "refresh_token", err) }()

	payload, err := s.codec.Verify(domain.TokenRefresh, refreshToken)
	if err != nil {
		return nil, err
	}

	oldHash := utils.HashToken(refreshToken)
	session, err := s.tokenRepo.GetByTokenHash(ctx, oldHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrRefreshTokenReused
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	if session.UserID != payload.UserID {
		return nil, domain.ErrRefreshTokenReused
	}

	user, err := s.getUser(ctx, payload.UserID)
	if err != nil {
		return nil, err
	}

	next, err := s.signPair(user.ID, user.Verify, payload.ExpiresAt)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.Rotate(ctx, oldHash, next.session); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrRefreshTokenReused
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return next.tokens, nil
}

// VerifyEmail consumes the pending email-verify token and signs the user in
// with a Verified snapshot.
func (s *authService) VerifyEmail(ctx context.Context, token string) (result *VerifyEmailResult, err error) {
	defer func() { s.metrics.record(ctx, "verify_email", err) }()

	payload, err := s.codec.Verify(domain.TokenEmailVerify, token)
	if err != nil {
		return nil, err
	}

	user, err := s.getUser(ctx, payload.UserID)
	if err != nil {
		return nil, err
	}

	switch user.Verify {
	case domain.Verified:
		return &VerifyEmailResult{AlreadyVerified: true}, nil
	case domain.Banned:
		return nil, domain.ErrUserBanned
	}

	tokenHash := utils.HashToken(token)
	if user.EmailVerifyToken == nil || *user.EmailVerifyToken != tokenHash {
		return nil, domain.NewTokenInvalidError(errors.New("email verify token is not the pending one"))
	}

	if err := s.userRepo.MarkVerified(ctx, user.ID, tokenHash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewTokenInvalidError(errors.New("email verify token is not the pending one"))
		}
		return nil, fmt.Errorf("failed to verify email: %w", err)
	}

	pair, err := s.startSession(ctx, user.ID, domain.Verified)
	if err != nil {
		return nil, err
	}

	return &VerifyEmailResult{Tokens: pair}, nil
}

// ResendVerifyEmail replaces the pending email-verify token and delivers it
func (s *authService) ResendVerifyEmail(ctx context.Context, userID string) (err error) {
	defer func() { s.metrics.record(ctx, "resend_verify_email", err) }()

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	switch user.Verify {
	case domain.Verified:
		return domain.ErrAlreadyVerified
	case domain.Banned:
		return domain.ErrUserBanned
	}

	token, tokenHash, err := s.issueSingleUse(domain.TokenEmailVerify, user.ID, user.Verify)
	if err != nil {
		return err
	}

	if err := s.userRepo.SetEmailVerifyToken(ctx, user.ID, &tokenHash); err != nil {
		return fmt.Errorf("failed to store email verify token: %w", err)
	}

	s.deliver(ctx, domain.TokenEmailVerify, user, token)

	return nil
}

// ForgotPassword stores a new forgot-password token and delivers it
func (s *authService) ForgotPassword(ctx context.Context, email string) (err error) {
	defer func() { s.metrics.record(ctx, "forgot_password", err) }()

	user, err := s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, tokenHash, err := s.issueSingleUse(domain.TokenForgotPassword, user.ID, user.Verify)
	if err != nil {
		return err
	}

	if err := s.userRepo.SetForgotPasswordToken(ctx, user.ID, &tokenHash); err != nil {
		return fmt.Errorf("failed to store forgot password token: %w", err)
	}

	s.deliver(ctx, domain.TokenForgotPassword, user, token)

	return nil
}

// VerifyForgotPasswordToken checks the token without consuming it
func (s *authService) VerifyForgotPasswordToken(ctx context.Context, token string) (err error) {
	defer func() { s.metrics.record(ctx, "verify_forgot_password", err) }()

	_, _, err = s.pendingForgotPassword(ctx, token)
	return err
}

// ResetPassword consumes the forgot-password token and sets the new password
func (s *authService) ResetPassword(ctx context.Context, token, password string) (err error) {
	defer func() { s.metrics.record(ctx, "reset_password", err) }()

	user, tokenHash, err := s.pendingForgotPassword(ctx, token)
	if err != nil {
		return err
	}

	passwordHash, err := s.hashPassword(password)
	if err != nil {
		return err
	}

	if err := s.userRepo.ConsumeForgotPasswordToken(ctx, user.ID, tokenHash, passwordHash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewTokenInvalidError(errors.New("forgot password token is not the pending one"))
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}

	return nil
}

// pendingForgotPassword verifies token and that it is the user's pending
// forgot-password token.
func (s *authService) pendingForgotPassword(ctx context.Context, token string) (*domain.User, string, error) {
	payload, err := s.codec.Verify(domain.TokenForgotPassword, token)
	if err != nil {
		return nil, "", err
	}

	user, err := s.getUser(ctx, payload.UserID)
	if err != nil {
		return nil, "", err
	}

	tokenHash := utils.HashToken(token)
	if user.ForgotPasswordToken == nil || *user.ForgotPasswordToken != tokenHash {
		return nil, "", domain.NewTokenInvalidError(errors.New("forgot password token is not the pending one"))
	}

	return user, tokenHash, nil
}

// ChangePassword replaces the password after checking the old one
func (s *authService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) (err error) {
	defer func() { s.metrics.record(ctx, "change_password", err) }()

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if !s.hasher.Compare(user.PasswordHash, oldPassword) {
		return domain.ErrOldPasswordMismatch
	}

	passwordHash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// ValidateAccessToken validates an access token
func (s *authService) ValidateAccessToken(token string) (*domain.TokenPayload, error) {
	return s.codec.Verify(domain.TokenAccess, token)
}

// AccessTokenExpiry returns the access token lifetime in seconds
func (s *authService) AccessTokenExpiry() int {
	return int(s.codec.Expiry(domain.TokenAccess).Seconds())
}

// RefreshTokenExpiry returns the refresh token lifetime in seconds
func (s *authService) RefreshTokenExpiry() int {
	return int(s.codec.Expiry(domain.TokenRefresh).Seconds())
}

func (s *authService) getUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
