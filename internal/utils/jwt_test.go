package utils

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/prperemyshlev/social-service/internal/config"
	"github.com/prperemyshlev/social-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKinds = []domain.TokenKind{
	domain.TokenAccess,
	domain.TokenRefresh,
	domain.TokenEmailVerify,
	domain.TokenForgotPassword,
}

func testJWTConfig() config.JWTConfig {
	secret := "test-secret-key-that-is-at-least-32-characters-long"
	return config.JWTConfig{
		Access:         config.TokenConfig{Secret: secret + "-a", Expiry: config.Duration{Duration: 15 * time.Minute}},
		Refresh:        config.TokenConfig{Secret: secret + "-r", Expiry: config.Duration{Duration: 100 * 24 * time.Hour}},
		EmailVerify:    config.TokenConfig{Secret: secret + "-e", Expiry: config.Duration{Duration: 7 * 24 * time.Hour}},
		ForgotPassword: config.TokenConfig{Secret: secret + "-f", Expiry: config.Duration{Duration: 7 * 24 * time.Hour}},
	}
}

func newTestCodec(t *testing.T) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec(testJWTConfig())
	require.NoError(t, err)
	return codec
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now().Truncate(time.Second)

	for _, kind := range allKinds {
		t.Run(string(kind), func(t *testing.T) {
			in := domain.TokenPayload{
				ID:        "jti-" + string(kind),
				UserID:    "user-1",
				Kind:      kind,
				Verify:    domain.Verified,
				IssuedAt:  now,
				ExpiresAt: now.Add(time.Hour),
			}

			token, err := codec.Sign(in)
			require.NoError(t, err)

			out, err := codec.Verify(kind, token)
			require.NoError(t, err)

			assert.Equal(t, in.ID, out.ID)
			assert.Equal(t, in.UserID, out.UserID)
			assert.Equal(t, in.Kind, out.Kind)
			assert.Equal(t, in.Verify, out.Verify)
			assert.True(t, in.IssuedAt.Equal(out.IssuedAt))
			assert.True(t, in.ExpiresAt.Equal(out.ExpiresAt))
		})
	}
}

func TestTokenCodec_FailsAfterExpiry(t *testing.T) {
	codec := newTestCodec(t)

	for _, kind := range allKinds {
		token, err := codec.Sign(domain.TokenPayload{UserID: "user-1", Kind: kind})
		require.NoError(t, err)

		codec.now = func() time.Time { return time.Now().Add(codec.Expiry(kind) + time.Minute) }
		_, err = codec.Verify(kind, token)
		codec.now = time.Now

		require.Error(t, err, kind)
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
		assert.Contains(t, err.Error(), "Token has invalid claims")
	}
}

func TestTokenCodec_DefaultsFromConfig(t *testing.T) {
	codec := newTestCodec(t)
	before := time.Now().Truncate(time.Second)

	token, err := codec.Sign(domain.TokenPayload{UserID: "user-1", Kind: domain.TokenAccess})
	require.NoError(t, err)

	out, err := codec.Verify(domain.TokenAccess, token)
	require.NoError(t, err)

	assert.NotEmpty(t, out.ID)
	assert.WithinDuration(t, before.Add(15*time.Minute), out.ExpiresAt, 2*time.Second)
}

func TestTokenCodec_Missing(t *testing.T) {
	codec := newTestCodec(t)

	_, err := codec.Verify(domain.TokenAccess, "")

	assert.ErrorIs(t, err, domain.ErrTokenMissing)
	assert.Equal(t, "Access token is required", err.Error())
}

func TestTokenCodec_WrongKind(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.Sign(domain.TokenPayload{UserID: "user-1", Kind: domain.TokenAccess})
	require.NoError(t, err)

	// different secret per kind
	_, err = codec.Verify(domain.TokenRefresh, token)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestTokenCodec_SameSecretWrongType(t *testing.T) {
	cfg := testJWTConfig()
	cfg.Refresh.Secret = cfg.Access.Secret
	codec, err := NewTokenCodec(cfg)
	require.NoError(t, err)

	token, err := codec.Sign(domain.TokenPayload{UserID: "user-1", Kind: domain.TokenAccess})
	require.NoError(t, err)

	_, err = codec.Verify(domain.TokenRefresh, token)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	assert.Contains(t, err.Error(), "Token type mismatch")
}

func TestTokenCodec_Tampered(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.Sign(domain.TokenPayload{UserID: "user-1", Kind: domain.TokenAccess})
	require.NoError(t, err)

	_, err = codec.Verify(domain.TokenAccess, token+"x")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	_, err = codec.Verify(domain.TokenAccess, "not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestTokenCodec_RS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	cfg := testJWTConfig()
	cfg.Access = config.TokenConfig{PrivateKey: string(privPEM), Expiry: config.Duration{Duration: time.Minute}}
	codec, err := NewTokenCodec(cfg)
	require.NoError(t, err)

	token, err := codec.Sign(domain.TokenPayload{UserID: "user-1", Kind: domain.TokenAccess, Verify: domain.Unverified})
	require.NoError(t, err)

	out, err := codec.Verify(domain.TokenAccess, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", out.UserID)
	assert.Equal(t, domain.Unverified, out.Verify)
}

func TestNewTokenCodec_BadKey(t *testing.T) {
	cfg := testJWTConfig()
	cfg.EmailVerify = config.TokenConfig{PrivateKey: "garbage"}

	_, err := NewTokenCodec(cfg)
	assert.Error(t, err)
}
