package repository

import (
	"context"
	"time"

	"github.com/prperemyshlev/social-service/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
	UpdateLastLogin(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	// SetEmailVerifyToken and SetForgotPasswordToken overwrite the pending token hash.
	SetEmailVerifyToken(ctx context.Context, userID string, tokenHash *string) error
	SetForgotPasswordToken(ctx context.Context, userID string, tokenHash *string) error

	// MarkVerified sets the user Verified and clears the pending email-verify
	// token, only if tokenHash is still the pending one. Returns ErrNotFound otherwise.
	MarkVerified(ctx context.Context, userID, tokenHash string) error
	// ConsumeForgotPasswordToken sets the new password hash and clears the
	// pending forgot-password token, only if tokenHash is still the pending one.
	ConsumeForgotPasswordToken(ctx context.Context, userID, tokenHash, passwordHash string) error

	AddToCircle(ctx context.Context, userID, memberID string) error
	RemoveFromCircle(ctx context.Context, userID, memberID string) error
}

// TokenRepository is the session store: at most one refresh token per user
type TokenRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.RefreshToken, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	// Upsert inserts the user's session or overwrites the existing one.
	Upsert(ctx context.Context, token *domain.RefreshToken) error
	// Rotate replaces the session only while it still holds oldHash.
	Rotate(ctx context.Context, oldHash string, next *domain.RefreshToken) error
	// DeleteByTokenHash is a no-op for unknown tokens.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// OAuthProviderRepository defines methods for OAuth provider operations
type OAuthProviderRepository interface {
	Create(ctx context.Context, provider *domain.OAuthProvider) error
	GetByProvider(ctx context.Context, provider, providerUserID string) (*domain.OAuthProvider, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.OAuthProvider, error)
}

type FollowerRepository interface {
	// Create returns ErrDuplicateFollow when the edge already exists.
	Create(ctx context.Context, follower *domain.Follower) error
	Delete(ctx context.Context, userID, followedUserID string) error
}

type TweetRepository interface {
	Create(ctx context.Context, tweet *domain.Tweet) error
	GetByID(ctx context.Context, id string) (*domain.Tweet, error)
	// IncrementViews bumps user_views or guest_views and returns the updated tweet.
	IncrementViews(ctx context.Context, id string, byUser bool) (*domain.Tweet, error)
}

type BookmarkRepository interface {
	// Create is idempotent per (user, tweet) and returns the stored bookmark.
	Create(ctx context.Context, bookmark *domain.Bookmark) (*domain.Bookmark, error)
	Delete(ctx context.Context, userID, tweetID string) error
}
