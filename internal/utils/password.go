package utils

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/prperemyshlev/social-service/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned by BcryptHasher.Hash for input over MaxPasswordBytes
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// PasswordHasher turns plaintext passwords into storable digests
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// BcryptHasher hashes passwords using bcrypt
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

// Hash hashes a password using bcrypt
func (h *BcryptHasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// Compare compares a password with a hash
func (h *BcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// LegacyHasher is the unsalted hex(sha256(password + secret)) scheme. Equal
// passwords produce equal digests across users; keep it only for stores
// migrated from that scheme.
type LegacyHasher struct {
	secret string
}

func NewLegacyHasher(secret string) *LegacyHasher {
	return &LegacyHasher{secret: secret}
}

func (h *LegacyHasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password + h.secret))
	return hex.EncodeToString(sum[:]), nil
}

func (h *LegacyHasher) Compare(hash, password string) bool {
	digest, _ := h.Hash(password)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(hash)) == 1
}

// NewPasswordHasher picks the hasher named by the security config
func NewPasswordHasher(cfg config.SecurityConfig) (PasswordHasher, error) {
	switch cfg.PasswordHasher {
	case "bcrypt":
		return NewBcryptHasher(cfg.BCryptCost), nil
	case "legacy":
		return NewLegacyHasher(cfg.PasswordSecret), nil
	default:
		return nil, fmt.Errorf("unknown password hasher %q", cfg.PasswordHasher)
	}
}

// HashToken returns the hex SHA-256 of a signed token, the form tokens are stored in
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
