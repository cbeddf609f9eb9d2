package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectProviderQuery = `(?s)^\s*SELECT\s+id,\s*user_id,\s*provider,\s*provider_user_id,\s*email,\s*created_at\s+FROM\s+oauth_providers\s+WHERE\s+provider\s*=\s*\$1\s+AND\s+provider_user_id\s*=\s*\$2`

func TestOAuthProviderRepository_GetByProvider(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOAuthProviderRepository(db)

	now := time.Now()
	mock.ExpectQuery(selectProviderQuery).
		WithArgs("google", "sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "provider", "provider_user_id", "email", "created_at"}).
			AddRow("p1", "u1", "google", "sub-1", "a@example.com", now))

	got, err := repo.GetByProvider(context.Background(), "google", "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	require.NotNil(t, got.Email)
	assert.Equal(t, "a@example.com", *got.Email)
}

func TestOAuthProviderRepository_GetByProvider_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOAuthProviderRepository(db)

	mock.ExpectQuery(selectProviderQuery).
		WithArgs("google", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByProvider(context.Background(), "google", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
