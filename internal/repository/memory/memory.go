// Package memory provides map-backed repositories with the same semantics as
// the Postgres ones. Used for tests and local runs without a database.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/social-service/internal/domain"
	"github.com/prperemyshlev/social-service/internal/repository"
)

// Store holds every table behind one mutex.
type Store struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	sessions  map[string]*domain.RefreshToken // by user id
	providers map[string]*domain.OAuthProvider
	follows   map[[2]string]*domain.Follower
	tweets    map[string]*domain.Tweet
	bookmarks map[[2]string]*domain.Bookmark
}

func NewStore() *Store {
	return &Store{
		users:     make(map[string]*domain.User),
		sessions:  make(map[string]*domain.RefreshToken),
		providers: make(map[string]*domain.OAuthProvider),
		follows:   make(map[[2]string]*domain.Follower),
		tweets:    make(map[string]*domain.Tweet),
		bookmarks: make(map[[2]string]*domain.Bookmark),
	}
}

// NewRepositories returns all repositories backed by a fresh store
func NewRepositories() (*repository.Repositories, *Store) {
	s := NewStore()
	return &repository.Repositories{
		User:          (*userRepo)(s),
		Token:         (*tokenRepo)(s),
		OAuthProvider: (*providerRepo)(s),
		Follower:      (*followerRepo)(s),
		Tweet:         (*tweetRepo)(s),
		Bookmark:      (*bookmarkRepo)(s),
	}, s
}

// SessionCount returns the number of session records held for userID
func (s *Store) SessionCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[userID]; ok {
		return 1
	}
	return 0
}

// FollowExists reports whether userID follows followedID
func (s *Store) FollowExists(userID, followedID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.follows[[2]string{userID, followedID}]
	return ok
}

// SetVerify overwrites a user's status, standing in for an admin action
func (s *Store) SetVerify(userID string, status domain.VerifyStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.Verify = status
	}
}

func notFound(what, id string) error {
	return fmt.Errorf("%s %s not found: %w", what, id, repository.ErrNotFound)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	c.Circle = slices.Clone(u.Circle)
	if u.EmailVerifyToken != nil {
		v := *u.EmailVerifyToken
		c.EmailVerifyToken = &v
	}
	if u.ForgotPasswordToken != nil {
		v := *u.ForgotPasswordToken
		c.ForgotPasswordToken = &v
	}
	return &c
}

type userRepo Store

func (r *userRepo) store() *Store { return (*Store)(r) }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("user with email %s already exists: %w", user.Email, repository.ErrDuplicateEmail)
		}
		if u.Username == user.Username {
			return fmt.Errorf("user with username %s already exists: %w", user.Username, repository.ErrDuplicateUsername)
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	if user.Circle == nil {
		user.Circle = []string{}
	}

	s.users[user.ID] = copyUser(user)
	return nil
}

func (r *userRepo) find(match func(*domain.User) bool, what, id string) (*domain.User, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, notFound(what, id)
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email }, "user with email", email)
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id }, "user with id", id)
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username }, "user with username", username)
}

// update runs fn on the stored user under the lock
func (r *userRepo) update(userID string, fn func(*domain.User) error) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return notFound("user", userID)
	}
	if err := fn(u); err != nil {
		return err
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (r *userRepo) UpdateProfile(_ context.Context, user *domain.User) error {
	s := r.store()
	s.mu.Lock()
	for id, u := range s.users {
		if id != user.ID && u.Username == user.Username {
			s.mu.Unlock()
			return fmt.Errorf("user with username %s already exists: %w", user.Username, repository.ErrDuplicateUsername)
		}
	}
	s.mu.Unlock()

	return r.update(user.ID, func(u *domain.User) error {
		u.Name = user.Name
		u.Username = user.Username
		u.Bio = user.Bio
		u.Location = user.Location
		u.Website = user.Website
		u.Avatar = user.Avatar
		u.CoverPhoto = user.CoverPhoto
		u.DateOfBirth = user.DateOfBirth
		return nil
	})
}

func (r *userRepo) UpdateLastLogin(_ context.Context, userID string) error {
	return r.update(userID, func(u *domain.User) error {
		now := time.Now()
		u.LastLoginAt = &now
		return nil
	})
}

func (r *userRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	return r.update(userID, func(u *domain.User) error {
		u.PasswordHash = passwordHash
		return nil
	})
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (r *userRepo) SetEmailVerifyToken(_ context.Context, userID string, tokenHash *string) error {
	return r.update(userID, func(u *domain.User) error {
		u.EmailVerifyToken = clonePtr(tokenHash)
		return nil
	})
}

func (r *userRepo) SetForgotPasswordToken(_ context.Context, userID string, tokenHash *string) error {
	return r.update(userID, func(u *domain.User) error {
		u.ForgotPasswordToken = clonePtr(tokenHash)
		return nil
	})
}

func (r *userRepo) MarkVerified(_ context.Context, userID, tokenHash string) error {
	return r.update(userID, func(u *domain.User) error {
		if u.EmailVerifyToken == nil || *u.EmailVerifyToken != tokenHash {
			return notFound("pending email verification for user", userID)
		}
		u.Verify = domain.Verified
		u.EmailVerifyToken = nil
		return nil
	})
}

func (r *userRepo) ConsumeForgotPasswordToken(_ context.Context, userID, tokenHash, passwordHash string) error {
	return r.update(userID, func(u *domain.User) error {
		if u.ForgotPasswordToken == nil || *u.ForgotPasswordToken != tokenHash {
			return notFound("pending password reset for user", userID)
		}
		u.PasswordHash = passwordHash
		u.ForgotPasswordToken = nil
		return nil
	})
}

func (r *userRepo) AddToCircle(_ context.Context, userID, memberID string) error {
	err := r.update(userID, func(u *domain.User) error {
		if !slices.Contains(u.Circle, memberID) {
			u.Circle = append(u.Circle, memberID)
		}
		return nil
	})
	// Postgres updates zero rows for a missing user without error
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

func (r *userRepo) RemoveFromCircle(_ context.Context, userID, memberID string) error {
	return r.update(userID, func(u *domain.User) error {
		u.Circle = slices.DeleteFunc(u.Circle, func(id string) bool { return id == memberID })
		return nil
	})
}

type tokenRepo Store

func (r *tokenRepo) store() *Store { return (*Store)(r) }

func (r *tokenRepo) GetByUserID(_ context.Context, userID string) (*domain.RefreshToken, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.sessions[userID]
	if !ok {
		return nil, notFound("token for user", userID)
	}
	c := *t
	return &c, nil
}

func (r *tokenRepo) GetByTokenHash(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.sessions {
		if t.TokenHash == tokenHash {
			c := *t
			return &c, nil
		}
	}
	return nil, notFound("token with hash", tokenHash)
}

func (r *tokenRepo) Upsert(_ context.Context, token *domain.RefreshToken) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	c := *token
	s.sessions[token.UserID] = &c
	return nil
}

func (r *tokenRepo) Rotate(_ context.Context, oldHash string, next *domain.RefreshToken) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.sessions[next.UserID]
	if !ok || cur.TokenHash != oldHash {
		return notFound("session for user", next.UserID)
	}
	if next.CreatedAt.IsZero() {
		next.CreatedAt = time.Now()
	}
	c := *next
	s.sessions[next.UserID] = &c
	return nil
}

func (r *tokenRepo) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, t := range s.sessions {
		if t.TokenHash == tokenHash {
			delete(s.sessions, userID)
		}
	}
	return nil
}

func (r *tokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for userID, t := range s.sessions {
		if t.ExpiresAt.Before(now) {
			delete(s.sessions, userID)
			n++
		}
	}
	return n, nil
}

type providerRepo Store

func (r *providerRepo) store() *Store { return (*Store)(r) }

func (r *providerRepo) Create(_ context.Context, provider *domain.OAuthProvider) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.providers {
		if p.Provider == provider.Provider && p.ProviderUserID == provider.ProviderUserID {
			return fmt.Errorf("%s account %s is already linked: %w", provider.Provider, provider.ProviderUserID, repository.ErrDuplicateOAuthProvider)
		}
	}
	if provider.ID == "" {
		provider.ID = uuid.New().String()
	}
	if provider.CreatedAt.IsZero() {
		provider.CreatedAt = time.Now()
	}
	c := *provider
	s.providers[provider.ID] = &c
	return nil
}

func (r *providerRepo) GetByProvider(_ context.Context, provider, providerUserID string) (*domain.OAuthProvider, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.providers {
		if p.Provider == provider && p.ProviderUserID == providerUserID {
			c := *p
			return &c, nil
		}
	}
	return nil, notFound("oauth provider connection", providerUserID)
}

func (r *providerRepo) GetByUserID(_ context.Context, userID string) ([]*domain.OAuthProvider, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.OAuthProvider
	for _, p := range s.providers {
		if p.UserID == userID {
			c := *p
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *domain.OAuthProvider) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

type followerRepo Store

func (r *followerRepo) store() *Store { return (*Store)(r) }

func (r *followerRepo) Create(_ context.Context, follower *domain.Follower) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]string{follower.UserID, follower.FollowedUserID}
	if _, ok := s.follows[key]; ok {
		return fmt.Errorf("user %s already follows %s: %w", follower.UserID, follower.FollowedUserID, repository.ErrDuplicateFollow)
	}
	if follower.ID == "" {
		follower.ID = uuid.New().String()
	}
	if follower.CreatedAt.IsZero() {
		follower.CreatedAt = time.Now()
	}
	c := *follower
	s.follows[key] = &c
	return nil
}

func (r *followerRepo) Delete(_ context.Context, userID, followedUserID string) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.follows, [2]string{userID, followedUserID})
	return nil
}

type tweetRepo Store

func (r *tweetRepo) store() *Store { return (*Store)(r) }

func copyTweet(t *domain.Tweet) *domain.Tweet {
	c := *t
	c.Hashtags = slices.Clone(t.Hashtags)
	c.Mentions = slices.Clone(t.Mentions)
	c.ParentID = clonePtr(t.ParentID)
	return &c
}

func (r *tweetRepo) Create(_ context.Context, tweet *domain.Tweet) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	if tweet.ID == "" {
		tweet.ID = uuid.New().String()
	}
	now := time.Now()
	if tweet.CreatedAt.IsZero() {
		tweet.CreatedAt = now
	}
	if tweet.UpdatedAt.IsZero() {
		tweet.UpdatedAt = now
	}
	s.tweets[tweet.ID] = copyTweet(tweet)
	return nil
}

func (r *tweetRepo) GetByID(_ context.Context, id string) (*domain.Tweet, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tweets[id]
	if !ok {
		return nil, notFound("tweet", id)
	}
	return copyTweet(t), nil
}

func (r *tweetRepo) IncrementViews(_ context.Context, id string, byUser bool) (*domain.Tweet, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tweets[id]
	if !ok {
		return nil, notFound("tweet", id)
	}
	if byUser {
		t.UserViews++
	} else {
		t.GuestViews++
	}
	t.UpdatedAt = time.Now()
	return copyTweet(t), nil
}

type bookmarkRepo Store

func (r *bookmarkRepo) store() *Store { return (*Store)(r) }

func (r *bookmarkRepo) Create(_ context.Context, bookmark *domain.Bookmark) (*domain.Bookmark, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]string{bookmark.UserID, bookmark.TweetID}
	if existing, ok := s.bookmarks[key]; ok {
		c := *existing
		return &c, nil
	}
	if bookmark.ID == "" {
		bookmark.ID = uuid.New().String()
	}
	if bookmark.CreatedAt.IsZero() {
		bookmark.CreatedAt = time.Now()
	}
	c := *bookmark
	s.bookmarks[key] = &c
	out := c
	return &out, nil
}

func (r *bookmarkRepo) Delete(_ context.Context, userID, tweetID string) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.bookmarks, [2]string{userID, tweetID})
	return nil
}
