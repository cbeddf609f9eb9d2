package service

import (
	"context"

	"github.com/prperemyshlev/social-service/internal/domain"
	"github.com/prperemyshlev/social-service/internal/dto"
)

// AuthService defines methods for authentication operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*domain.TokenPair, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*domain.TokenPair, error)
	OAuthLogin(ctx context.Context, code string) (*OAuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error)

	VerifyEmail(ctx context.Context, token string) (*VerifyEmailResult, error)
	ResendVerifyEmail(ctx context.Context, userID string) error

	ForgotPassword(ctx context.Context, email string) error
	VerifyForgotPasswordToken(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, token, password string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error

	ValidateAccessToken(token string) (*domain.TokenPayload, error)
	AccessTokenExpiry() int
	RefreshTokenExpiry() int
}

// UserService covers profiles and the social graph
type UserService interface {
	GetMe(ctx context.Context, userID string) (*dto.UserResponse, error)
	GetProfile(ctx context.Context, username string) (*dto.ProfileResponse, error)
	UpdateMe(ctx context.Context, userID string, req *dto.UpdateMeRequest) (*dto.UserResponse, error)
	Follow(ctx context.Context, userID, followedUserID string) (*FollowResult, error)
	Unfollow(ctx context.Context, userID, followedUserID string) error
	AddToCircle(ctx context.Context, userID, memberID string) error
	RemoveFromCircle(ctx context.Context, userID, memberID string) error
}

type TweetService interface {
	CreateTweet(ctx context.Context, userID string, req *dto.CreateTweetRequest) (*domain.Tweet, error)
	// GetTweet applies the audience gate; viewerID is empty for guests.
	GetTweet(ctx context.Context, tweetID, viewerID string) (*domain.Tweet, error)
}

type BookmarkService interface {
	Bookmark(ctx context.Context, userID, tweetID string) (*domain.Bookmark, error)
	Unbookmark(ctx context.Context, userID, tweetID string) error
}

// TokenSender delivers email-verify and forgot-password tokens out of band
type TokenSender interface {
	Send(ctx context.Context, delivery TokenDelivery) error
}

// IdentityProvider exchanges an authorization code for the caller's identity
type IdentityProvider interface {
	Name() string
	Exchange(ctx context.Context, code string) (*domain.OAuthIdentity, error)
}

type TokenDelivery struct {
	Kind   domain.TokenKind `json:"kind"`
	UserID string           `json:"user_id"`
	Email  string           `json:"email"`
	Name   string           `json:"name"`
	Token  string           `json:"token"`
}

// VerifyEmailResult is the outcome of a successful verify-email call.
// Tokens is nil when the account was already verified.
type VerifyEmailResult struct {
	AlreadyVerified bool
	Tokens          *domain.TokenPair
}

type OAuthResult struct {
	Tokens  *domain.TokenPair
	NewUser bool
	Verify  domain.VerifyStatus
}

type FollowResult struct {
	AlreadyFollowing bool
}
