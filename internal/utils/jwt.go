package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prperemyshlev/social-service/internal/config"
	"github.com/prperemyshlev/social-service/internal/domain"
)

// Claims is the JWT body shared by all token kinds
type Claims struct {
	UserID    string              `json:"user_id"`
	TokenType domain.TokenKind    `json:"token_type"`
	Verify    domain.VerifyStatus `json:"verify"`
	jwt.RegisteredClaims
}

type signingKey struct {
	method jwt.SigningMethod
	sign   any
	verify any
	expiry time.Duration
}

// TokenCodec signs and verifies the four token kinds, each with its own key and expiry
type TokenCodec struct {
	keys map[domain.TokenKind]signingKey
	now  func() time.Time
}

// NewTokenCodec creates a codec from JWT configuration. A kind with a PEM
// private key is signed with RS256, otherwise with HS256 and its secret.
func NewTokenCodec(cfg config.JWTConfig) (*TokenCodec, error) {
	kinds := map[domain.TokenKind]config.TokenConfig{
		domain.TokenAccess:         cfg.Access,
		domain.TokenRefresh:        cfg.Refresh,
		domain.TokenEmailVerify:    cfg.EmailVerify,
		domain.TokenForgotPassword: cfg.ForgotPassword,
	}

	c := &TokenCodec{keys: make(map[domain.TokenKind]signingKey, len(kinds)), now: time.Now}
	for kind, tc := range kinds {
		key, err := newSigningKey(tc)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s token key: %w", kind, err)
		}
		c.keys[kind] = key
	}

	return c, nil
}

func newSigningKey(tc config.TokenConfig) (signingKey, error) {
	if tc.PrivateKey != "" {
		priv, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(tc.PrivateKey))
		if err != nil {
			return signingKey{}, err
		}
		return signingKey{
			method: jwt.SigningMethodRS256,
			sign:   priv,
			verify: &priv.PublicKey,
			expiry: tc.Expiry.Duration,
		}, nil
	}

	if tc.Secret == "" {
		return signingKey{}, errors.New("secret is empty")
	}
	return signingKey{
		method: jwt.SigningMethodHS256,
		sign:   []byte(tc.Secret),
		verify: []byte(tc.Secret),
		expiry: tc.Expiry.Duration,
	}, nil
}

// Sign issues a token of payload.Kind. Zero IssuedAt/ExpiresAt/ID are filled in.
func (c *TokenCodec) Sign(payload domain.TokenPayload) (string, error) {
	key, ok := c.keys[payload.Kind]
	if !ok {
		return "", fmt.Errorf("unknown token kind %q", payload.Kind)
	}

	if payload.IssuedAt.IsZero() {
		payload.IssuedAt = c.now().Truncate(time.Second)
	}
	if payload.ExpiresAt.IsZero() {
		payload.ExpiresAt = payload.IssuedAt.Add(key.expiry)
	}
	if payload.ID == "" {
		payload.ID = uuid.New().String()
	}

	claims := Claims{
		UserID:    payload.UserID,
		TokenType: payload.Kind,
		Verify:    payload.Verify,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        payload.ID,
			IssuedAt:  jwt.NewNumericDate(payload.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(payload.ExpiresAt),
		},
	}

	token, err := jwt.NewWithClaims(key.method, claims).SignedString(key.sign)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", payload.Kind, err)
	}

	return token, nil
}

// Verify decodes a token of the given kind. An empty token yields a
// TokenMissing error; any decode failure yields TokenInvalid.
func (c *TokenCodec) Verify(kind domain.TokenKind, token string) (*domain.TokenPayload, error) {
	if token == "" {
		return nil, domain.NewTokenMissingError(kind)
	}

	key, ok := c.keys[kind]
	if !ok {
		return nil, fmt.Errorf("unknown token kind %q", kind)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return key.verify, nil
	},
		jwt.WithValidMethods([]string{key.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, domain.NewTokenInvalidError(err)
	}

	if claims.TokenType != kind {
		return nil, domain.NewTokenInvalidError(fmt.Errorf("token type mismatch: expected %s", kind))
	}

	payload := &domain.TokenPayload{
		ID:     claims.ID,
		UserID: claims.UserID,
		Kind:   claims.TokenType,
		Verify: claims.Verify,
	}
	if claims.IssuedAt != nil {
		payload.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		payload.ExpiresAt = claims.ExpiresAt.Time
	}

	return payload, nil
}

// Expiry returns the configured lifetime of a token kind
func (c *TokenCodec) Expiry(kind domain.TokenKind) time.Duration {
	return c.keys[kind].expiry
}
