package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const minSecretLength = 32

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	JWT      JWTConfig      `env:",prefix=JWT_"`
	Security SecurityConfig `env:",prefix="`
	OAuth    OAuthConfig    `env:",prefix="`
	Mail     MailConfig     `env:",prefix=MAIL_"`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=social_service"`
	Password string `env:"PASSWORD,default=social_service_password"`
	DBName   string `env:"DB,default=social_service_db"`
	SSLMode  string `env:"SSLMODE,default=disable"`
	Migrate  bool   `env:"MIGRATE,default=true"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

// TokenConfig holds the signing material for one token kind. A non-empty
// PrivateKey (PEM encoded RSA key) switches the kind to RS256, otherwise
// Secret is used with HS256.
type TokenConfig struct {
	Secret     string   `env:"SECRET"`
	PrivateKey string   `env:"PRIVATE_KEY"`
	Expiry     Duration `env:"EXPIRY"`
}

type JWTConfig struct {
	Access         TokenConfig `env:",prefix=ACCESS_"`
	Refresh        TokenConfig `env:",prefix=REFRESH_"`
	EmailVerify    TokenConfig `env:",prefix=EMAIL_VERIFY_"`
	ForgotPassword TokenConfig `env:",prefix=FORGOT_PASSWORD_"`
}

type SecurityConfig struct {
	BCryptCost             int      `env:"BCRYPT_COST,default=12"`
	PasswordHasher         string   `env:"PASSWORD_HASHER,default=bcrypt"`
	PasswordSecret         string   `env:"HASH_PASSWORD_SECRET,default="`
	RateLimitRequests      int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow        Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
	SessionCleanupInterval Duration `env:"SESSION_CLEANUP_INTERVAL,default=1h"`
}

type OAuthConfig struct {
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID,default="`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET,default="`
	GoogleRedirectURI  string `env:"GOOGLE_REDIRECT_URI,default=http://localhost:8080/api/v1/users/oauth/google"`
	ClientRedirectURL  string `env:"CLIENT_REDIRECT_URL,default=http://localhost:3000/login/oauth"`
}

type MailConfig struct {
	OutboxKey string `env:"OUTBOX_KEY,default=outbox:mail"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// Default expiries applied when a token kind has no explicit EXPIRY.
var defaultExpiries = map[string]time.Duration{
	"ACCESS":          15 * time.Minute,
	"REFRESH":         100 * 24 * time.Hour,
	"EMAIL_VERIFY":    7 * 24 * time.Hour,
	"FORGOT_PASSWORD": 7 * 24 * time.Hour,
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Kinds returns the token configurations keyed by their env prefix.
func (j *JWTConfig) Kinds() map[string]*TokenConfig {
	return map[string]*TokenConfig{
		"ACCESS":          &j.Access,
		"REFRESH":         &j.Refresh,
		"EMAIL_VERIFY":    &j.EmailVerify,
		"FORGOT_PASSWORD": &j.ForgotPassword,
	}
}

// GoogleEnabled reports whether Google sign-in is configured.
func (o OAuthConfig) GoogleEnabled() bool {
	return o.GoogleClientID != "" && o.GoogleClientSecret != ""
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate fills token expiry defaults and checks signing material.
func (c *Config) Validate() error {
	for name, token := range c.JWT.Kinds() {
		if token.Expiry.Duration == 0 {
			token.Expiry.Duration = defaultExpiries[name]
		}
		if token.Expiry.Duration < 0 {
			return fmt.Errorf("JWT_%s_EXPIRY must be positive", name)
		}
		if token.PrivateKey != "" {
			continue
		}
		if len(token.Secret) < minSecretLength {
			return fmt.Errorf("JWT_%s_SECRET must be at least %d characters long", name, minSecretLength)
		}
	}

	switch c.Security.PasswordHasher {
	case "bcrypt":
	case "legacy":
		if c.Security.PasswordSecret == "" {
			return fmt.Errorf("HASH_PASSWORD_SECRET is required for the legacy password hasher")
		}
	default:
		return fmt.Errorf("unknown PASSWORD_HASHER %q", c.Security.PasswordHasher)
	}

	return nil
}
