package userrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "username", "email", "password_hash", "phone", "verified", "referral_code", "referred_by", "created_at", "last_login"}

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := New(mockDB)
	t.Cleanup(func() {
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})
	return repo, mockDB
}

func ptr[T any](v T) *T { return &v }

func TestRepository_FindByUsername(t *testing.T) {
	repo, mock := NewMock(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		username  string
		mockSetup func()
		expectErr bool
		result    *domain.User
	}{
		{
			name:     "User found",
			username: "alice",
			mockSetup: func() {
				rows := pgxmock.NewRows(columns).
					AddRow(1, "alice", "alice@example.com", "hash", "+256700000000", false, "ABCD1234", nil, created, nil)
				mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE username = $1")).
					WithArgs("alice").
					WillReturnRows(rows)
			},
			result: &domain.User{
				ID:           1,
				Username:     "alice",
				Email:        "alice@example.com",
				PasswordHash: "hash",
				Phone:        "+256700000000",
				ReferralCode: "ABCD1234",
				CreatedAt:    created,
			},
		},
		{
			name:     "User not found",
			username: "ghost",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE username = $1")).
					WithArgs("ghost").
					WillReturnError(pgx.ErrNoRows)
			},
			result: nil,
		},
		{
			name:     "Database error",
			username: "alice",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE username = $1")).
					WithArgs("alice").
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.FindByUsername(context.Background(), tt.username)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.result, result)
		})
	}
}

func TestRepository_FindByIDForUpdate(t *testing.T) {
	repo, mock := NewMock(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs(2).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(2, "bob", "bob@example.com", "hash", "", false, "BBBB2222", ptr("ABCD1234"), created, nil))

	user, err := repo.FindByIDForUpdate(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "bob", user.Username)
	require.NotNil(t, user.ReferredBy)
	assert.Equal(t, "ABCD1234", *user.ReferredBy)
}

func TestRepository_FindByReferralCode(t *testing.T) {
	repo, mock := NewMock(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	lastLogin := created.Add(time.Hour)

	rows := pgxmock.NewRows(columns).
		AddRow(7, "bob", "bob@example.com", "hash", "", true, "ABC12300", ptr("ZZZZ0000"), created, &lastLogin)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE referral_code = $1")).
		WithArgs("ABC12300").
		WillReturnRows(rows)

	user, err := repo.FindByReferralCode(context.Background(), "ABC12300")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, 7, user.ID)
	assert.True(t, user.Verified)
	require.NotNil(t, user.ReferredBy)
	assert.Equal(t, "ZZZZ0000", *user.ReferredBy)
	require.NotNil(t, user.LastLogin)
	assert.Equal(t, lastLogin, *user.LastLogin)
}

func TestRepository_FindReferredBy(t *testing.T) {
	repo, mock := NewMock(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := pgxmock.NewRows(columns).
		AddRow(2, "bob", "bob@example.com", "hash", "", false, "BBBB0000", ptr("AAAA0000"), created, nil).
		AddRow(3, "carol", "carol@example.com", "hash", "", false, "CCCC0000", ptr("AAAA0000"), created.Add(time.Minute), nil)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + userColumns + ` FROM users WHERE referred_by = $1 ORDER BY created_at ASC`)).
		WithArgs("AAAA0000").
		WillReturnRows(rows)

	users, err := repo.FindReferredBy(context.Background(), "AAAA0000")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[0].Username)
	assert.Equal(t, "carol", users[1].Username)
}

func TestRepository_CountReferredBy(t *testing.T) {
	repo, mock := NewMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE referred_by = $1")).
		WithArgs("AAAA0000").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountReferredBy(context.Background(), "AAAA0000")
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	insert := regexp.QuoteMeta(`
		INSERT INTO users (username, email, password_hash, phone, verified, referral_code, referred_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`)

	newUser := func() *domain.User {
		return &domain.User{
			Username:     "bob",
			Email:        "bob@example.com",
			PasswordHash: "hash",
			ReferralCode: "BBBB0000",
			ReferredBy:   ptr("AAAA0000"),
		}
	}

	tests := []struct {
		name      string
		mockSetup func()
		expectErr error
		field     string
	}{
		{
			name: "Create user successfully",
			mockSetup: func() {
				mock.ExpectQuery(insert).
					WithArgs("bob", "bob@example.com", "hash", "", false, "BBBB0000", ptr("AAAA0000")).
					WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(2, created))
			},
		},
		{
			name: "Duplicate email",
			mockSetup: func() {
				mock.ExpectQuery(insert).
					WithArgs("bob", "bob@example.com", "hash", "", false, "BBBB0000", ptr("AAAA0000")).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})
			},
			expectErr: domain.ErrDuplicateKey,
			field:     "email",
		},
		{
			name: "Duplicate referral code",
			mockSetup: func() {
				mock.ExpectQuery(insert).
					WithArgs("bob", "bob@example.com", "hash", "", false, "BBBB0000", ptr("AAAA0000")).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_referral_code_key"})
			},
			expectErr: domain.ErrDuplicateKey,
			field:     "referral_code",
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(insert).
					WithArgs("bob", "bob@example.com", "hash", "", false, "BBBB0000", ptr("AAAA0000")).
					WillReturnError(errors.New("database error"))
			},
			expectErr: errors.New("database error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.Create(context.Background(), newUser())
			if tt.expectErr != nil {
				assert.Error(t, err)
				assert.Nil(t, result)
				if tt.field != "" {
					assert.ErrorIs(t, err, domain.ErrDuplicateKey)
					var dup *domain.DuplicateKeyError
					require.ErrorAs(t, err, &dup)
					assert.Equal(t, tt.field, dup.Field)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 2, result.ID)
			assert.Equal(t, created, result.CreatedAt)
		})
	}
}

func TestRepository_UpdateLastLogin(t *testing.T) {
	repo, mock := NewMock(t)
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	update := regexp.QuoteMeta("UPDATE users SET last_login = $1 WHERE id = $2")

	mock.ExpectExec(update).WithArgs(at, 1).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, repo.UpdateLastLogin(context.Background(), 1, at))

	mock.ExpectExec(update).WithArgs(at, 99).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.UpdateLastLogin(context.Background(), 99, at), domain.ErrNotFound)
}
