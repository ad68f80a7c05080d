package transactionrepo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "user_id", "investment_id", "amount", "type", "status", "payment_method", "reference", "created_at", "completed_at"}

var insert = regexp.QuoteMeta(`
	INSERT INTO transactions (user_id, investment_id, amount, type, status, payment_method, reference, created_at, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (reference) DO NOTHING
	RETURNING id
`)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})
	return New(mockDB), mockDB
}

func sequence(refs ...string) func(domain.TransactionType) string {
	i := 0
	return func(domain.TransactionType) string {
		ref := refs[i%len(refs)]
		i++
		return ref
	}
}

func TestRepository_Create(t *testing.T) {
	now := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		refs      []string
		mockSetup func(mock pgxmock.PgxPoolIface)
		expectErr error
		reference string
	}{
		{
			name: "Create with generated reference",
			refs: []string{"PYT-AAAAAAAAAA"},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(insert).
					WithArgs(3, (*int)(nil), pgxmock.AnyArg(), "payout", "completed", "system", "PYT-AAAAAAAAAA", now, &now).
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(11))
			},
			reference: "PYT-AAAAAAAAAA",
		},
		{
			name: "Reference collision is retried",
			refs: []string{"PYT-AAAAAAAAAA", "PYT-BBBBBBBBBB"},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(insert).
					WithArgs(3, (*int)(nil), pgxmock.AnyArg(), "payout", "completed", "system", "PYT-AAAAAAAAAA", now, &now).
					WillReturnRows(pgxmock.NewRows([]string{"id"}))
				mock.ExpectQuery(insert).
					WithArgs(3, (*int)(nil), pgxmock.AnyArg(), "payout", "completed", "system", "PYT-BBBBBBBBBB", now, &now).
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(12))
			},
			reference: "PYT-BBBBBBBBBB",
		},
		{
			name: "Gives up after repeated collisions",
			refs: []string{"PYT-AAAAAAAAAA"},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				for i := 0; i < maxReferenceAttempts; i++ {
					mock.ExpectQuery(insert).
						WithArgs(3, (*int)(nil), pgxmock.AnyArg(), "payout", "completed", "system", "PYT-AAAAAAAAAA", now, &now).
						WillReturnError(pgx.ErrNoRows)
				}
			},
			expectErr: domain.ErrDuplicateKey,
		},
		{
			name: "Database error",
			refs: []string{"PYT-AAAAAAAAAA"},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(insert).
					WithArgs(3, (*int)(nil), pgxmock.AnyArg(), "payout", "completed", "system", "PYT-AAAAAAAAAA", now, &now).
					WillReturnError(errors.New("database error"))
			},
			expectErr: errors.New("database error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := NewMock(t)
			repo.newReference = sequence(tt.refs...)
			tt.mockSetup(mock)

			tx := &domain.Transaction{
				UserID:        3,
				Amount:        decimal.RequireFromString("0.1"),
				Type:          domain.TransactionPayout,
				Status:        domain.StatusCompleted,
				PaymentMethod: domain.MethodSystem,
				CreatedAt:     now,
				CompletedAt:   &now,
			}
			result, err := repo.Create(context.Background(), tx)
			if tt.expectErr != nil {
				assert.Error(t, err)
				if errors.Is(tt.expectErr, domain.ErrDuplicateKey) {
					assert.ErrorIs(t, err, domain.ErrDuplicateKey)
				}
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.reference, result.Reference)
		})
	}
}

func TestRepository_FindByID(t *testing.T) {
	repo, mock := NewMock(t)
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	investmentID := 4
	query := regexp.QuoteMeta(`SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`)

	mock.ExpectQuery(query).WithArgs(1).WillReturnRows(pgxmock.NewRows(columns).AddRow(
		1, 2, &investmentID, decimal.NewFromInt(10), domain.TransactionDeposit, domain.StatusPending,
		domain.MethodPending, "INV-0123456789", created, nil,
	))
	tx, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, domain.TransactionDeposit, tx.Type)
	assert.Equal(t, domain.StatusPending, tx.Status)
	require.NotNil(t, tx.InvestmentID)
	assert.Equal(t, 4, *tx.InvestmentID)

	mock.ExpectQuery(query).WithArgs(2).WillReturnError(pgx.ErrNoRows)
	tx, err = repo.FindByID(context.Background(), 2)
	assert.NoError(t, err)
	assert.Nil(t, tx)
}

func TestRepository_CompleteDeposit(t *testing.T) {
	repo, mock := NewMock(t)
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	at := created.Add(time.Minute)
	investmentID := 4
	update := regexp.QuoteMeta(`UPDATE transactions SET status = 'completed', payment_method = $1, completed_at = $2 WHERE id = $3 AND user_id = $4 AND type = 'deposit' AND status = 'pending'`)

	tests := []struct {
		name      string
		mockSetup func()
		expectNil bool
		expectErr bool
	}{
		{
			name: "Pending deposit completed",
			mockSetup: func() {
				mock.ExpectQuery(update).WithArgs("visa", at, 1, 2).WillReturnRows(pgxmock.NewRows(columns).AddRow(
					1, 2, &investmentID, decimal.NewFromInt(10), domain.TransactionDeposit, domain.StatusCompleted,
					domain.MethodVisa, "INV-0123456789", created, &at,
				))
			},
		},
		{
			name: "Already completed",
			mockSetup: func() {
				mock.ExpectQuery(update).WithArgs("visa", at, 1, 2).WillReturnRows(pgxmock.NewRows(columns))
			},
			expectNil: true,
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(update).WithArgs("visa", at, 1, 2).WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			tx, err := repo.CompleteDeposit(context.Background(), 1, 2, domain.MethodVisa, at)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.expectNil {
				assert.Nil(t, tx)
				return
			}
			require.NotNil(t, tx)
			assert.Equal(t, domain.StatusCompleted, tx.Status)
			assert.Equal(t, domain.MethodVisa, tx.PaymentMethod)
			require.NotNil(t, tx.CompletedAt)
			assert.Equal(t, at, *tx.CompletedAt)
		})
	}
}

func TestRepository_FindRecentByUserID(t *testing.T) {
	repo, mock := NewMock(t)
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows(columns)
	for i := 5; i > 0; i-- {
		rows.AddRow(i, 2, nil, decimal.NewFromInt(5), domain.TransactionWithdrawal, domain.StatusPending,
			domain.MethodMTN, fmt.Sprintf("WDR-%010d", i), created.Add(time.Duration(i)*time.Hour), nil)
	}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`)).
		WithArgs(2, 5).
		WillReturnRows(rows)

	txs, err := repo.FindRecentByUserID(context.Background(), 2, 5)
	require.NoError(t, err)
	require.Len(t, txs, 5)
	assert.Equal(t, 5, txs[0].ID)
	assert.Nil(t, txs[0].InvestmentID)
}

func TestRepository_FindByUser(t *testing.T) {
	repo, mock := NewMock(t)
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE user_id = $1 AND type = $2 AND status = $3`)).
		WithArgs(1, "referral", "completed").
		WillReturnRows(pgxmock.NewRows(columns).AddRow(
			8, 1, nil, decimal.RequireFromString("0.5"), domain.TransactionReferral, domain.StatusCompleted,
			domain.MethodSystem, "REF-0123456789", created, &created,
		))

	txs, err := repo.FindByUser(context.Background(), 1, domain.TransactionReferral, domain.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "0.5", txs[0].Amount.String())
}

func TestRepository_SumByUser(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta(`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1 AND type = $2 AND status = $3`)

	mock.ExpectQuery(query).WithArgs(1, "referral", "completed").
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(decimal.RequireFromString("1.5")))
	sum, err := repo.SumByUser(context.Background(), 1, domain.TransactionReferral, domain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, "1.5", sum.String())

	mock.ExpectQuery(query).WithArgs(1, "referral", "completed").WillReturnError(errors.New("database error"))
	_, err = repo.SumByUser(context.Background(), 1, domain.TransactionReferral, domain.StatusCompleted)
	assert.Error(t, err)
}

func TestRepository_CountByUser(t *testing.T) {
	repo, mock := NewMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM transactions WHERE user_id = $1 AND type = $2 AND status = $3`)).
		WithArgs(2, "deposit", "completed").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.CountByUser(context.Background(), 2, domain.TransactionDeposit, domain.StatusCompleted)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}
