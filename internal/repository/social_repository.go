package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/prperemyshlev/social-service/internal/domain"
	"github.com/prperemyshlev/social-service/pkg/database"
)

type followerRepository struct {
	db *database.Postgres
}

func NewFollowerRepository(db *database.Postgres) FollowerRepository {
	return &followerRepository{db: db}
}

func (r *followerRepository) Create(ctx context.Context, follower *domain.Follower) error {
	query := `
		INSERT INTO followers (id, user_id, followed_user_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if follower.ID == "" {
		follower.ID = uuid.New().String()
	}
	if follower.CreatedAt.IsZero() {
		follower.CreatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query, follower.ID, follower.UserID, follower.FollowedUserID, follower.CreatedAt)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return fmt.Errorf("user %s already follows %s: %w", follower.UserID, follower.FollowedUserID, ErrDuplicateFollow)
		}
		return fmt.Errorf("failed to create follower: %w", err)
	}

	return nil
}

func (r *followerRepository) Delete(ctx context.Context, userID, followedUserID string) error {
	query := `DELETE FROM followers WHERE user_id = $1 AND followed_user_id = $2`

	if _, err := r.db.DB.ExecContext(ctx, query, userID, followedUserID); err != nil {
		return fmt.Errorf("failed to delete follower: %w", err)
	}

	return nil
}

const tweetColumns = `id, user_id, type, audience, content, parent_id, hashtags, mentions,
		guest_views, user_views, created_at, updated_at`

type tweetRepository struct {
	db *database.Postgres
}

func NewTweetRepository(db *database.Postgres) TweetRepository {
	return &tweetRepository{db: db}
}

func (r *tweetRepository) Create(ctx context.Context, tweet *domain.Tweet) error {
	query := `
		INSERT INTO tweets (id, user_id, type, audience, content, parent_id, hashtags, mentions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

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

	_, err := r.db.DB.ExecContext(ctx, query,
		tweet.ID,
		tweet.UserID,
		tweet.Type,
		tweet.Audience,
		tweet.Content,
		tweet.ParentID,
		pq.Array(nonNil(tweet.Hashtags)),
		pq.Array(nonNil(tweet.Mentions)),
		tweet.CreatedAt,
		tweet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tweet: %w", err)
	}

	return nil
}

func (r *tweetRepository) GetByID(ctx context.Context, id string) (*domain.Tweet, error) {
	query := `SELECT ` + tweetColumns + ` FROM tweets WHERE id = $1`

	tweet, err := scanTweet(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tweet %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tweet: %w", err)
	}

	return tweet, nil
}

func (r *tweetRepository) IncrementViews(ctx context.Context, id string, byUser bool) (*domain.Tweet, error) {
	column := "guest_views"
	if byUser {
		column = "user_views"
	}
	query := `UPDATE tweets SET ` + column + ` = ` + column + ` + 1, updated_at = $2 WHERE id = $1 RETURNING ` + tweetColumns

	tweet, err := scanTweet(r.db.DB.QueryRowContext(ctx, query, id, time.Now()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tweet %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to increment views: %w", err)
	}

	return tweet, nil
}

func scanTweet(row *sql.Row) (*domain.Tweet, error) {
	tweet := &domain.Tweet{}
	var parentID sql.NullString
	var hashtags, mentions pq.StringArray

	err := row.Scan(
		&tweet.ID,
		&tweet.UserID,
		&tweet.Type,
		&tweet.Audience,
		&tweet.Content,
		&parentID,
		&hashtags,
		&mentions,
		&tweet.GuestViews,
		&tweet.UserViews,
		&tweet.CreatedAt,
		&tweet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		tweet.ParentID = &parentID.String
	}
	tweet.Hashtags = []string(hashtags)
	tweet.Mentions = []string(mentions)

	return tweet, nil
}

type bookmarkRepository struct {
	db *database.Postgres
}

func NewBookmarkRepository(db *database.Postgres) BookmarkRepository {
	return &bookmarkRepository{db: db}
}

// Create inserts the bookmark or returns the existing one for the same pair
func (r *bookmarkRepository) Create(ctx context.Context, bookmark *domain.Bookmark) (*domain.Bookmark, error) {
	query := `
		INSERT INTO bookmarks (id, user_id, tweet_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, tweet_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, tweet_id, created_at
	`

	if bookmark.ID == "" {
		bookmark.ID = uuid.New().String()
	}
	if bookmark.CreatedAt.IsZero() {
		bookmark.CreatedAt = time.Now()
	}

	stored := &domain.Bookmark{}
	err := r.db.DB.QueryRowContext(ctx, query, bookmark.ID, bookmark.UserID, bookmark.TweetID, bookmark.CreatedAt).
		Scan(&stored.ID, &stored.UserID, &stored.TweetID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create bookmark: %w", err)
	}

	return stored, nil
}

func (r *bookmarkRepository) Delete(ctx context.Context, userID, tweetID string) error {
	query := `DELETE FROM bookmarks WHERE user_id = $1 AND tweet_id = $2`

	if _, err := r.db.DB.ExecContext(ctx, query, userID, tweetID); err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}

	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
