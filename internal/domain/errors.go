package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain failure for transport mapping.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error is a typed failure returned by the services.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same kind and message, so wrapped
// copies of the sentinels below still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func NewValidationError(msg string) *Error   { return newError(KindValidation, msg) }
func NewNotFoundError(msg string) *Error     { return newError(KindNotFound, msg) }
func NewConflictError(msg string) *Error     { return newError(KindConflict, msg) }
func NewUnauthorizedError(msg string) *Error { return newError(KindUnauthorized, msg) }
func NewForbiddenError(msg string) *Error    { return newError(KindForbidden, msg) }

// NewTokenInvalidError wraps a decode failure; the message is the decode
// error with its first letter capitalized.
func NewTokenInvalidError(err error) *Error {
	return &Error{Kind: KindUnauthorized, Message: capitalize(err.Error()), Err: ErrTokenInvalid}
}

// NewTokenMissingError reports an absent token of the given kind.
func NewTokenMissingError(kind TokenKind) *Error {
	return &Error{Kind: KindUnauthorized, Message: kind.Title() + " token is required", Err: ErrTokenMissing}
}

var (
	ErrEmailAlreadyExists       = NewConflictError("Email already exists")
	ErrUsernameAlreadyUsed      = NewConflictError("Username already used")
	ErrAlreadyVerified          = NewConflictError("Email already verified")
	ErrEmailOrPasswordIncorrect = NewUnauthorizedError("Email or password is incorrect")
	ErrProviderEmailUnverified  = NewUnauthorizedError("Provider email is not verified")
	ErrTokenMissing             = NewUnauthorizedError("Token is required")
	ErrTokenInvalid             = NewUnauthorizedError("Token is invalid")
	ErrRefreshTokenReused       = NewUnauthorizedError("Refresh token is used or does not exist")
	ErrOldPasswordMismatch      = NewUnauthorizedError("Old password not match")
	ErrUserNotFound             = NewNotFoundError("User not found")
	ErrTweetNotFound            = NewNotFoundError("Tweet not found")
	ErrUserNotVerified          = NewForbiddenError("User not verified")
	ErrUserBanned               = NewForbiddenError("User is banned")
	ErrTweetNotPublic           = NewForbiddenError("Tweet is not public")
	ErrCannotFollowSelf         = NewValidationError("Cannot follow yourself")
	ErrPasswordTooLong          = NewValidationError("Password must be at most 72 bytes")
	ErrOAuthCodeRejected        = NewUnauthorizedError("Authorization code is invalid or expired")
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
