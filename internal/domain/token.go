package domain

import "time"

// TokenKind distinguishes the four independently signed token families.
type TokenKind string

const (
	TokenAccess         TokenKind = "access"
	TokenRefresh        TokenKind = "refresh"
	TokenEmailVerify    TokenKind = "email_verify"
	TokenForgotPassword TokenKind = "forgot_password"
)

// Title is the kind name used in user facing messages, e.g. "Access".
func (k TokenKind) Title() string {
	switch k {
	case TokenAccess:
		return "Access"
	case TokenRefresh:
		return "Refresh"
	case TokenEmailVerify:
		return "Email verify"
	case TokenForgotPassword:
		return "Forgot password"
	default:
		return string(k)
	}
}

// TokenPayload is the decoded content of a signed token.
type TokenPayload struct {
	ID        string       `json:"jti"`
	UserID    string       `json:"user_id"`
	Kind      TokenKind    `json:"token_type"`
	Verify    VerifyStatus `json:"verify"`
	IssuedAt  time.Time    `json:"iat"`
	ExpiresAt time.Time    `json:"exp"`
}

// TokenPair represents a pair of access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
