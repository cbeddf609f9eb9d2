package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/social-service/internal/domain"
	"github.com/prperemyshlev/social-service/internal/dto"
	"github.com/prperemyshlev/social-service/internal/repository"
)

type tweetService struct {
	tweetRepo repository.TweetRepository
	userRepo  repository.UserRepository
	now       func() time.Time
}

// NewTweetService creates a new tweet service
func NewTweetService(repos *repository.Repositories) TweetService {
	return &tweetService{
		tweetRepo: repos.Tweet,
		userRepo:  repos.User,
		now:       time.Now,
	}
}

// CreateTweet checks the shape rules of the tweet type and stores it
func (s *tweetService) CreateTweet(ctx context.Context, userID string, req *dto.CreateTweetRequest) (*domain.Tweet, error) {
	if !req.Type.Valid() {
		return nil, domain.NewValidationError("Invalid tweet type")
	}
	if !req.Audience.Valid() {
		return nil, domain.NewValidationError("Invalid tweet audience")
	}

	hashtags := normalizeHashtags(req.Hashtags)
	mentions, err := normalizeMentions(req.Mentions)
	if err != nil {
		return nil, err
	}

	if req.Type == domain.TweetTypeTweet {
		if req.ParentID != nil {
			return nil, domain.NewValidationError("Parent id must be null for a tweet")
		}
	} else {
		if req.ParentID == nil {
			return nil, domain.NewValidationError("Parent id is required for retweets, comments and quote tweets")
		}
		if err := s.checkParent(ctx, *req.ParentID); err != nil {
			return nil, err
		}
	}

	content := strings.TrimSpace(req.Content)
	if req.Type == domain.TweetTypeRetweet {
		if content != "" {
			return nil, domain.NewValidationError("Content must be empty for a retweet")
		}
	} else if content == "" && len(hashtags) == 0 && len(mentions) == 0 {
		return nil, domain.NewValidationError("Content must not be empty")
	}

	now := s.now()
	tweet := &domain.Tweet{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      req.Type,
		Audience:  req.Audience,
		Content:   content,
		ParentID:  req.ParentID,
		Hashtags:  hashtags,
		Mentions:  mentions,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.tweetRepo.Create(ctx, tweet); err != nil {
		return nil, fmt.Errorf("failed to create tweet: %w", err)
	}

	return tweet, nil
}

func (s *tweetService) checkParent(ctx context.Context, parentID string) error {
	if err := checkID(parentID, "parent tweet"); err != nil {
		return err
	}
	if _, err := s.tweetRepo.GetByID(ctx, parentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrTweetNotFound
		}
		return fmt.Errorf("failed to get parent tweet: %w", err)
	}
	return nil
}

// normalizeHashtags strips a leading '#', drops blanks and duplicates
func normalizeHashtags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, tag := range in {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag == "" || slices.Contains(out, tag) {
			continue
		}
		out = append(out, tag)
	}
	return out
}

func normalizeMentions(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, id := range in {
		if err := checkID(id, "mentioned user"); err != nil {
			return nil, err
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

// GetTweet returns the tweet after the audience gate and counts the view.
// Circle tweets are visible to the author and to members of the author's
// circle only.
func (s *tweetService) GetTweet(ctx context.Context, tweetID, viewerID string) (*domain.Tweet, error) {
	if err := checkID(tweetID, "tweet"); err != nil {
		return nil, err
	}

	tweet, err := s.tweetRepo.GetByID(ctx, tweetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrTweetNotFound
		}
		return nil, fmt.Errorf("failed to get tweet: %w", err)
	}

	if tweet.Audience == domain.AudienceTwitterCircle {
		if err := s.checkCircle(ctx, tweet, viewerID); err != nil {
			return nil, err
		}
	}

	viewed, err := s.tweetRepo.IncrementViews(ctx, tweet.ID, viewerID != "")
	if err != nil {
		return nil, fmt.Errorf("failed to count tweet view: %w", err)
	}

	return viewed, nil
}

func (s *tweetService) checkCircle(ctx context.Context, tweet *domain.Tweet, viewerID string) error {
	if viewerID == "" {
		return domain.NewTokenMissingError(domain.TokenAccess)
	}

	author, err := s.userRepo.GetByID(ctx, tweet.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to get tweet author: %w", err)
	}
	if author.Verify == domain.Banned {
		return domain.ErrUserNotFound
	}

	if author.ID != viewerID && !author.InCircle(viewerID) {
		return domain.ErrTweetNotPublic
	}
	return nil
}
