package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stockkeep/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"id", "fullname", "email", "password_hash", "created_at"}

func TestUserRepository_CreateSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(sqlPattern(`INSERT INTO users (fullname, email, password_hash, created_at) VALUES ($1, $2, $3, $4) RETURNING id`)).
		WithArgs("Ana", "a@x.com", "hash", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	got, err := repo.Create(context.Background(), types.User{Fullname: "Ana", Email: "a@x.com", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.Equal(t, 7, got.ID)
	assert.Equal(t, "a@x.com", got.Email)
	assert.False(t, got.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(sqlPattern(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	_, err := repo.Create(context.Background(), types.User{Fullname: "Ana", Email: "a@x.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserRepository_CreateStorageError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(sqlPattern(`INSERT INTO users`)).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Create(context.Background(), types.User{Email: "a@x.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(sqlPattern(`FROM users WHERE email = $1`)).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(3, "Ana", "a@x.com", "hash", created))

	got, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, types.User{ID: 3, Fullname: "Ana", Email: "a@x.com", PasswordHash: "hash", CreatedAt: created}, got)
}

func TestUserRepository_GetByEmailNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(sqlPattern(`FROM users WHERE email = $1`)).
		WithArgs("A@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "A@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(sqlPattern(`FROM users WHERE id = $1`)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(3, "Ana", "a@x.com", "hash", time.Now()))

	got, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Fullname)
}
