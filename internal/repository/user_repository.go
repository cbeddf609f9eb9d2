package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/prperemyshlev/social-service/internal/domain"
	"github.com/prperemyshlev/social-service/pkg/database"
)

const userColumns = `id, email, name, username, password_hash, verify, email_verify_token, forgot_password_token,
		bio, location, website, avatar, cover_photo, date_of_birth, circle, created_at, updated_at, last_login_at`

// userRepository implements UserRepository interface
type userRepository struct {
	db *database.Postgres
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Postgres) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, name, username, password_hash, verify, email_verify_token,
			date_of_birth, circle, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	if user.Circle == nil {
		user.Circle = []string{}
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Username,
		user.PasswordHash,
		user.Verify,
		user.EmailVerifyToken,
		user.DateOfBirth,
		pq.Array(user.Circle),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return uniqueUserError(err, user, "failed to create user")
	}

	return nil
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, "username", username)
}

// column is always one of the constants above, never user input.
func (r *userRepository) getBy(ctx context.Context, column, value string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	user, err := scanUser(r.db.DB.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with %s %s not found: %w", column, value, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}

	return user, nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	var emailVerifyToken, forgotPasswordToken sql.NullString
	var lastLoginAt sql.NullTime
	var circle pq.StringArray

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Username,
		&user.PasswordHash,
		&user.Verify,
		&emailVerifyToken,
		&forgotPasswordToken,
		&user.Bio,
		&user.Location,
		&user.Website,
		&user.Avatar,
		&user.CoverPhoto,
		&user.DateOfBirth,
		&circle,
		&user.CreatedAt,
		&user.UpdatedAt,
		&lastLoginAt,
	)
	if err != nil {
		return nil, err
	}

	if emailVerifyToken.Valid {
		user.EmailVerifyToken = &emailVerifyToken.String
	}
	if forgotPasswordToken.Valid {
		user.ForgotPasswordToken = &forgotPasswordToken.String
	}
	if lastLoginAt.Valid {
		user.LastLoginAt = &lastLoginAt.Time
	}
	user.Circle = []string(circle)

	return user, nil
}

// UpdateProfile writes the editable profile fields of user
func (r *userRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, username = $3, bio = $4, location = $5, website = $6,
			avatar = $7, cover_photo = $8, date_of_birth = $9, updated_at = $10
		WHERE id = $1
	`

	user.UpdatedAt = time.Now()
	result, err := r.db.DB.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Username,
		user.Bio,
		user.Location,
		user.Website,
		user.Avatar,
		user.CoverPhoto,
		user.DateOfBirth,
		user.UpdatedAt,
	)
	if err != nil {
		return uniqueUserError(err, user, "failed to update user")
	}

	return expectOne(result, "user", user.ID)
}

// UpdateLastLogin updates the last login timestamp for a user
func (r *userRepository) UpdateLastLogin(ctx context.Context, userID string) error {
	query := `UPDATE users SET last_login_at = $1 WHERE id = $2`

	result, err := r.db.DB.ExecContext(ctx, query, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return expectOne(result, "user", userID)
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, userID, passwordHash, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return expectOne(result, "user", userID)
}

func (r *userRepository) SetEmailVerifyToken(ctx context.Context, userID string, tokenHash *string) error {
	query := `UPDATE users SET email_verify_token = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, userID, tokenHash, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set email verify token: %w", err)
	}

	return expectOne(result, "user", userID)
}

func (r *userRepository) SetForgotPasswordToken(ctx context.Context, userID string, tokenHash *string) error {
	query := `UPDATE users SET forgot_password_token = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, userID, tokenHash, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set forgot password token: %w", err)
	}

	return expectOne(result, "user", userID)
}

func (r *userRepository) MarkVerified(ctx context.Context, userID, tokenHash string) error {
	query := `
		UPDATE users
		SET verify = $3, email_verify_token = NULL, updated_at = $4
		WHERE id = $1 AND email_verify_token = $2
	`

	result, err := r.db.DB.ExecContext(ctx, query, userID, tokenHash, domain.Verified, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}

	return expectOne(result, "pending email verification for user", userID)
}

func (r *userRepository) ConsumeForgotPasswordToken(ctx context.Context, userID, tokenHash, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $3, forgot_password_token = NULL, updated_at = $4
		WHERE id = $1 AND forgot_password_token = $2
	`

	result, err := r.db.DB.ExecContext(ctx, query, userID, tokenHash, passwordHash, time.Now())
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	return expectOne(result, "pending password reset for user", userID)
}

func (r *userRepository) AddToCircle(ctx context.Context, userID, memberID string) error {
	query := `
		UPDATE users
		SET circle = array_append(circle, $2::text), updated_at = $3
		WHERE id = $1 AND NOT ($2::text = ANY(circle))
	`

	// no rows affected: already a member
	if _, err := r.db.DB.ExecContext(ctx, query, userID, memberID, time.Now()); err != nil {
		return fmt.Errorf("failed to add to circle: %w", err)
	}

	return nil
}

func (r *userRepository) RemoveFromCircle(ctx context.Context, userID, memberID string) error {
	query := `UPDATE users SET circle = array_remove(circle, $2::text), updated_at = $3 WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, userID, memberID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to remove from circle: %w", err)
	}

	return expectOne(result, "user", userID)
}

func uniqueUserError(err error, user *domain.User, msg string) error {
	if constraint, ok := uniqueConstraint(err); ok {
		if constraint == "users_username_key" {
			return fmt.Errorf("user with username %s already exists: %w", user.Username, ErrDuplicateUsername)
		}
		return fmt.Errorf("user with email %s already exists: %w", user.Email, ErrDuplicateEmail)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func expectOne(result sql.Result, what, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s %s not found: %w", what, id, ErrNotFound)
	}

	return nil
}
