package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prperemyshlev/social-service/internal/domain"
	"github.com/prperemyshlev/social-service/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*database.Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return &database.Postgres{DB: db}, mock
}

func TestTokenRepository_Upsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(db)

	expires := time.Now().Add(time.Hour)
	q := `(?s)^\s*INSERT\s+INTO\s+refresh_tokens\b.*ON\s+CONFLICT\s+\(user_id\)\s+DO\s+UPDATE`
	mock.ExpectExec(q).
		WithArgs("u1", "hash1", expires, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &domain.RefreshToken{UserID: "u1", TokenHash: "hash1", ExpiresAt: expires})
	require.NoError(t, err)
}

func TestTokenRepository_GetByTokenHash(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(db)

	q := `(?s)^\s*SELECT\s+user_id,\s*token_hash,\s*expires_at,\s*created_at\s+FROM\s+refresh_tokens\s+WHERE\s+token_hash\s*=\s*\$1`
	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs("hash1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "token_hash", "expires_at", "created_at"}).
			AddRow("u1", "hash1", now.Add(time.Hour), now))

	got, err := repo.GetByTokenHash(context.Background(), "hash1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "hash1", got.TokenHash)
}

func TestTokenRepository_GetByTokenHash_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(db)

	mock.ExpectQuery(`FROM\s+refresh_tokens\s+WHERE\s+token_hash`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByTokenHash(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenRepository_GetByUserID_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(db)

	mock.ExpectQuery(`FROM\s+refresh_tokens\s+WHERE\s+user_id`).
		WithArgs("u1").
		WillReturnError(errors.New("db down"))

	_, err := repo.GetByUserID(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "db down")
}

func TestTokenRepository_Rotate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(db)

	q := `(?s)^\s*UPDATE\s+refresh_tokens\s+SET\s+token_hash\s*=\s*\$3.*WHERE\s+user_id\s*=\s*\$1\s+AND\s+token_hash\s*=\s*\$2`
	expires := time.Now().Add(time.Hour)
	mock.ExpectExec(q).
		WithArgs("u1", "old", "new", expires, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Rotate(context.Background(), "old", &domain.RefreshToken{UserID: "u1", TokenHash: "new", ExpiresAt: expires})
	require.NoError(t, err)
}

func TestTokenRepository_Rotate_LostRace(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(db)

	mock.ExpectExec(`UPDATE\s+refresh_tokens`).
		WithArgs("u1", "old", "new", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Rotate(context.Background(), "old", &domain.RefreshToken{UserID: "u1", TokenHash: "new", ExpiresAt: time.Now()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenRepository_DeleteByTokenHash_Unknown(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(db)

	mock.ExpectExec(`(?s)^\s*DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+token_hash\s*=\s*\$1`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.DeleteByTokenHash(context.Background(), "missing"))
}

func TestTokenRepository_DeleteExpired(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(db)

	now := time.Now()
	mock.ExpectExec(`DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+expires_at\s*<\s*\$1`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
