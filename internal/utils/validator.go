package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 50
	// bcrypt rejects longer input
	MaxPasswordBytes = 72
)

// Go's regexp has no lookahead, so the all-digits rule is checked separately.
var (
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{4,15}$`)
	digitsRegex   = regexp.MustCompile(`^[0-9]+$`)
)

// ValidatePassword reports whether the password is 6-50 characters long, fits
// in 72 bytes and contains a lowercase letter, an uppercase letter, a digit
// and a symbol.
func ValidatePassword(password string) bool {
	if n := len([]rune(password)); n < minPasswordLength || n > maxPasswordLength {
		return false
	}
	if len(password) > MaxPasswordBytes {
		return false
	}

	var hasUpper, hasLower, hasNumber, hasSymbol bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSymbol = true
		}
	}

	return hasUpper && hasLower && hasNumber && hasSymbol
}

// ValidateUsername checks 4-15 word characters, not all digits
func ValidateUsername(username string) bool {
	return usernameRegex.MatchString(username) && !digitsRegex.MatchString(username)
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseDate accepts a plain date or a full RFC 3339 timestamp
func ParseDate(value string) (time.Time, error) {
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", value)
}
