package dto

import "github.com/prperemyshlev/social-service/internal/domain"

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Name            string `json:"name" binding:"required,min=1,max=100"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,strongpassword"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
	DateOfBirth     string `json:"date_of_birth" binding:"required,isodate"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest carries a refresh token. It may be empty when the
// token comes from the refresh_token cookie instead.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type VerifyEmailRequest struct {
	EmailVerifyToken string `json:"email_verify_token" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyForgotPasswordRequest struct {
	ForgotPasswordToken string `json:"forgot_password_token" binding:"required"`
}

type ResetPasswordRequest struct {
	ForgotPasswordToken string `json:"forgot_password_token" binding:"required"`
	Password            string `json:"password" binding:"required,strongpassword"`
	ConfirmPassword     string `json:"confirm_password" binding:"required,eqfield=Password"`
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password" binding:"required"`
	Password        string `json:"password" binding:"required,strongpassword"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
}

// UpdateMeRequest holds optional profile fields; absent fields are left untouched
type UpdateMeRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	DateOfBirth *string `json:"date_of_birth" binding:"omitempty,isodate"`
	Bio         *string `json:"bio" binding:"omitempty,max=200"`
	Location    *string `json:"location" binding:"omitempty,max=200"`
	Website     *string `json:"website" binding:"omitempty,max=200"`
	Username    *string `json:"username" binding:"omitempty,username"`
	Avatar      *string `json:"avatar" binding:"omitempty,max=400"`
	CoverPhoto  *string `json:"cover_photo" binding:"omitempty,max=400"`
}

type FollowRequest struct {
	FollowedUserID string `json:"followed_user_id" binding:"required,uuid"`
}

type CircleRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

type CreateTweetRequest struct {
	Type     domain.TweetType     `json:"type" binding:"min=0,max=3"`
	Audience domain.TweetAudience `json:"audience" binding:"min=0,max=1"`
	Content  string               `json:"content" binding:"max=280"`
	ParentID *string              `json:"parent_id" binding:"omitempty,uuid"`
	Hashtags []string             `json:"hashtags" binding:"omitempty,dive,required,max=50"`
	Mentions []string             `json:"mentions" binding:"omitempty,dive,uuid"`
}

type BookmarkRequest struct {
	TweetID string `json:"tweet_id" binding:"required,uuid"`
}
