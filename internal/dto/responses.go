package dto

import (
	"time"

	"github.com/prperemyshlev/social-service/internal/domain"
)

// AuthResponse represents an authentication response
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// UserResponse is the account view returned to its owner
type UserResponse struct {
	ID          string              `json:"id"`
	Email       string              `json:"email"`
	Name        string              `json:"name"`
	Username    string              `json:"username"`
	Verify      domain.VerifyStatus `json:"verify"`
	Bio         string              `json:"bio"`
	Location    string              `json:"location"`
	Website     string              `json:"website"`
	Avatar      string              `json:"avatar"`
	CoverPhoto  string              `json:"cover_photo"`
	DateOfBirth string              `json:"date_of_birth"`
	Circle      []string            `json:"circle"`
	Providers   []string            `json:"providers"`
	CreatedAt   string              `json:"created_at"`
	UpdatedAt   string              `json:"updated_at"`
	LastLoginAt *string             `json:"last_login_at"`
}

// ProfileResponse is the public view of a user
type ProfileResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	Bio         string `json:"bio"`
	Location    string `json:"location"`
	Website     string `json:"website"`
	Avatar      string `json:"avatar"`
	CoverPhoto  string `json:"cover_photo"`
	DateOfBirth string `json:"date_of_birth"`
}

// NewUserResponse never exposes the password hash or pending tokens
func NewUserResponse(u *domain.User, providers []string) *UserResponse {
	resp := &UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Username:    u.Username,
		Verify:      u.Verify,
		Bio:         u.Bio,
		Location:    u.Location,
		Website:     u.Website,
		Avatar:      u.Avatar,
		CoverPhoto:  u.CoverPhoto,
		DateOfBirth: u.DateOfBirth.Format(time.DateOnly),
		Circle:      u.Circle,
		Providers:   providers,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   u.UpdatedAt.Format(time.RFC3339),
	}
	if resp.Circle == nil {
		resp.Circle = []string{}
	}
	if resp.Providers == nil {
		resp.Providers = []string{}
	}
	if u.LastLoginAt != nil {
		lastLogin := u.LastLoginAt.Format(time.RFC3339)
		resp.LastLoginAt = &lastLogin
	}
	return resp
}

func NewProfileResponse(u *domain.User) *ProfileResponse {
	return &ProfileResponse{
		ID:          u.ID,
		Name:        u.Name,
		Username:    u.Username,
		Bio:         u.Bio,
		Location:    u.Location,
		Website:     u.Website,
		Avatar:      u.Avatar,
		CoverPhoto:  u.CoverPhoto,
		DateOfBirth: u.DateOfBirth.Format(time.DateOnly),
	}
}

// MessageResponse represents a success response with an optional result
type MessageResponse struct {
	Message string `json:"message"`
	Result  any    `json:"result,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
