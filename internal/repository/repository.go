package repository

import (
	"github.com/prperemyshlev/social-service/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User          UserRepository
	Token         TokenRepository
	OAuthProvider OAuthProviderRepository
	Follower      FollowerRepository
	Tweet         TweetRepository
	Bookmark      BookmarkRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:          NewUserRepository(db),
		Token:         NewTokenRepository(db),
		OAuthProvider: NewOAuthProviderRepository(db),
		Follower:      NewFollowerRepository(db),
		Tweet:         NewTweetRepository(db),
		Bookmark:      NewBookmarkRepository(db),
	}
}
