package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/social-service/internal/domain"
	"github.com/prperemyshlev/social-service/internal/repository"
)

type bookmarkService struct {
	bookmarkRepo repository.BookmarkRepository
	tweetRepo    repository.TweetRepository
}

func NewBookmarkService(repos *repository.Repositories) BookmarkService {
	return &bookmarkService{
		bookmarkRepo: repos.Bookmark,
		tweetRepo:    repos.Tweet,
	}
}

// Bookmark saves the tweet for the user; saving twice returns the same bookmark
func (s *bookmarkService) Bookmark(ctx context.Context, userID, tweetID string) (*domain.Bookmark, error) {
	if err := checkID(tweetID, "tweet"); err != nil {
		return nil, err
	}

	if _, err := s.tweetRepo.GetByID(ctx, tweetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrTweetNotFound
		}
		return nil, fmt.Errorf("failed to get tweet: %w", err)
	}

	bookmark, err := s.bookmarkRepo.Create(ctx, &domain.Bookmark{
		UserID:    userID,
		TweetID:   tweetID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to bookmark tweet: %w", err)
	}

	return bookmark, nil
}

func (s *bookmarkService) Unbookmark(ctx context.Context, userID, tweetID string) error {
	if err := checkID(tweetID, "tweet"); err != nil {
		return err
	}
	if err := s.bookmarkRepo.Delete(ctx, userID, tweetID); err != nil {
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}
	return nil
}
