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
	"go.uber.org/zap"
)

type userService struct {
	userRepo     repository.UserRepository
	providerRepo repository.OAuthProviderRepository
	followerRepo repository.FollowerRepository
	logger       *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(repos *repository.Repositories, logger *zap.Logger) UserService {
	return &userService{
		userRepo:     repos.User,
		providerRepo: repos.OAuthProvider,
		followerRepo: repos.Follower,
		logger:       logger,
	}
}

// GetMe returns the caller's own account, including linked providers
func (s *userService) GetMe(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return dto.NewUserResponse(user, s.providerNames(ctx, user.ID)), nil
}

func (s *userService) providerNames(ctx context.Context, userID string) []string {
	providers, err := s.providerRepo.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to list oauth providers", zap.String("user_id", userID), zap.Error(err))
		return nil
	}

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Provider)
	}
	return names
}

// GetProfile returns the public profile for username
func (s *userService) GetProfile(ctx context.Context, username string) (*dto.ProfileResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return dto.NewProfileResponse(user), nil
}

// UpdateMe applies a partial profile update. Username must stay unique.
func (s *userService) UpdateMe(ctx context.Context, userID string, req *dto.UpdateMeRequest) (*dto.UserResponse, error) {
	patch, err := profilePatch(req)
	if err != nil {
		return nil, err
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return dto.NewUserResponse(user, s.providerNames(ctx, user.ID)), nil
	}

	if patch.Username != nil && *patch.Username != user.Username {
		_, err := s.userRepo.GetByUsername(ctx, *patch.Username)
		if err == nil {
			return nil, domain.ErrUsernameAlreadyUsed
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
	}

	patch.Apply(user)
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, domain.ErrUsernameAlreadyUsed
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return dto.NewUserResponse(user, s.providerNames(ctx, user.ID)), nil
}

func profilePatch(req *dto.UpdateMeRequest) (domain.ProfilePatch, error) {
	patch := domain.ProfilePatch{
		Name:       req.Name,
		Bio:        req.Bio,
		Location:   req.Location,
		Website:    req.Website,
		Username:   req.Username,
		Avatar:     req.Avatar,
		CoverPhoto: req.CoverPhoto,
	}

	if req.Username != nil && !utils.ValidateUsername(*req.Username) {
		return patch, domain.NewValidationError("Username must be 4-15 letters, digits or underscores and not only digits")
	}

	if req.DateOfBirth != nil {
		dob, err := utils.ParseDate(*req.DateOfBirth)
		if err != nil {
			return patch, domain.NewValidationError("Date of birth must be an ISO 8601 date")
		}
		patch.DateOfBirth = &dob
	}

	return patch, nil
}

// Follow adds a follow edge. Following twice is reported, not rejected.
func (s *userService) Follow(ctx context.Context, userID, followedUserID string) (*FollowResult, error) {
	if err := checkID(followedUserID, "user"); err != nil {
		return nil, err
	}
	if userID == followedUserID {
		return nil, domain.ErrCannotFollowSelf
	}
	if _, err := s.getUser(ctx, followedUserID); err != nil {
		return nil, err
	}

	err := s.followerRepo.Create(ctx, &domain.Follower{
		UserID:         userID,
		FollowedUserID: followedUserID,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateFollow) {
			return &FollowResult{AlreadyFollowing: true}, nil
		}
		return nil, fmt.Errorf("failed to follow user: %w", err)
	}

	return &FollowResult{}, nil
}

func (s *userService) Unfollow(ctx context.Context, userID, followedUserID string) error {
	if err := checkID(followedUserID, "user"); err != nil {
		return err
	}
	if err := s.followerRepo.Delete(ctx, userID, followedUserID); err != nil {
		return fmt.Errorf("failed to unfollow user: %w", err)
	}
	return nil
}

// AddToCircle puts memberID on the caller's circle allow-list
func (s *userService) AddToCircle(ctx context.Context, userID, memberID string) error {
	if err := checkID(memberID, "user"); err != nil {
		return err
	}
	if userID == memberID {
		return domain.NewValidationError("Cannot add yourself to your circle")
	}
	if _, err := s.getUser(ctx, memberID); err != nil {
		return err
	}

	if err := s.userRepo.AddToCircle(ctx, userID, memberID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to add to circle: %w", err)
	}
	return nil
}

func (s *userService) RemoveFromCircle(ctx context.Context, userID, memberID string) error {
	if err := checkID(memberID, "user"); err != nil {
		return err
	}
	if err := s.userRepo.RemoveFromCircle(ctx, userID, memberID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to remove from circle: %w", err)
	}
	return nil
}

func (s *userService) getUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// checkID rejects ids that are not UUIDs before they reach the database
func checkID(id, what string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.NewValidationError(fmt.Sprintf("Invalid %s id", what))
	}
	return nil
}
