package domain

import "time"

type TweetType int

const (
	TweetTypeTweet TweetType = iota
	TweetTypeRetweet
	TweetTypeComment
	TweetTypeQuoteTweet
)

func (t TweetType) Valid() bool {
	return t >= TweetTypeTweet && t <= TweetTypeQuoteTweet
}

type TweetAudience int

const (
	AudienceEveryone TweetAudience = iota
	AudienceTwitterCircle
)

func (a TweetAudience) Valid() bool {
	return a == AudienceEveryone || a == AudienceTwitterCircle
}

// Tweet represents a tweet, retweet, comment or quote tweet
type Tweet struct {
	ID         string        `json:"id" db:"id"`
	UserID     string        `json:"user_id" db:"user_id"`
	Type       TweetType     `json:"type" db:"type"`
	Audience   TweetAudience `json:"audience" db:"audience"`
	Content    string        `json:"content" db:"content"`
	ParentID   *string       `json:"parent_id" db:"parent_id"`
	Hashtags   []string      `json:"hashtags" db:"hashtags"`
	Mentions   []string      `json:"mentions" db:"mentions"`
	GuestViews int64         `json:"guest_views" db:"guest_views"`
	UserViews  int64         `json:"user_views" db:"user_views"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
}

// Bookmark links a user to a saved tweet
type Bookmark struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	TweetID   string    `json:"tweet_id" db:"tweet_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Follower records that UserID follows FollowedUserID
type Follower struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	FollowedUserID string    `json:"followed_user_id" db:"followed_user_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
