package domain

import (
	"slices"
	"time"
)

// VerifyStatus is the lifecycle state of a user account.
type VerifyStatus int

const (
	Unverified VerifyStatus = iota
	Verified
	Banned
)

func (s VerifyStatus) String() string {
	switch s {
	case Unverified:
		return "unverified"
	case Verified:
		return "verified"
	case Banned:
		return "banned"
	default:
		return "unknown"
	}
}

// User represents a user in the system
type User struct {
	ID           string       `json:"id" db:"id"`
	Email        string       `json:"email" db:"email"`
	Name         string       `json:"name" db:"name"`
	Username     string       `json:"username" db:"username"`
	PasswordHash string       `json:"-" db:"password_hash"`
	Verify       VerifyStatus `json:"verify" db:"verify"`

	// Pending single-use tokens, stored as SHA-256 of the signed token.
	// nil means nothing is pending.
	EmailVerifyToken    *string `json:"-" db:"email_verify_token"`
	ForgotPasswordToken *string `json:"-" db:"forgot_password_token"`

	Bio         string     `json:"bio" db:"bio"`
	Location    string     `json:"location" db:"location"`
	Website     string     `json:"website" db:"website"`
	Avatar      string     `json:"avatar" db:"avatar"`
	CoverPhoto  string     `json:"cover_photo" db:"cover_photo"`
	DateOfBirth time.Time  `json:"date_of_birth" db:"date_of_birth"`
	Circle      []string   `json:"-" db:"circle"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at" db:"last_login_at"`
}

// InCircle reports whether userID is on the user's circle allow-list.
func (u *User) InCircle(userID string) bool {
	return slices.Contains(u.Circle, userID)
}

// ProfilePatch holds the optional fields of a profile update. nil fields are left untouched.
type ProfilePatch struct {
	Name        *string
	DateOfBirth *time.Time
	Bio         *string
	Location    *string
	Website     *string
	Username    *string
	Avatar      *string
	CoverPhoto  *string
}

// Empty reports whether the patch changes nothing.
func (p ProfilePatch) Empty() bool {
	return p.Name == nil && p.DateOfBirth == nil && p.Bio == nil && p.Location == nil &&
		p.Website == nil && p.Username == nil && p.Avatar == nil && p.CoverPhoto == nil
}

// Apply copies the set fields of the patch onto the user.
func (p ProfilePatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.DateOfBirth != nil {
		u.DateOfBirth = *p.DateOfBirth
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Location != nil {
		u.Location = *p.Location
	}
	if p.Website != nil {
		u.Website = *p.Website
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.CoverPhoto != nil {
		u.CoverPhoto = *p.CoverPhoto
	}
}

// RefreshToken is the single live session record of a user.
type RefreshToken struct {
	UserID    string    `json:"user_id" db:"user_id"`
	TokenHash string    `json:"-" db:"token_hash"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// OAuthProvider represents an OAuth provider connection for a user
type OAuthProvider struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	Provider       string    `json:"provider" db:"provider"` // google
	ProviderUserID string    `json:"provider_user_id" db:"provider_user_id"`
	Email          *string   `json:"email" db:"email"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// OAuthIdentity is what an external identity provider asserts about a user.
type OAuthIdentity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}
