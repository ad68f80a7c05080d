package referralservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func NewMock(t *testing.T, policy domain.ReferralPolicy) (*Service, *MockUserRepo, *MockTransactionRepo) {
	ctrl := gomock.NewController(t)
	userRepo := NewMockUserRepo(ctrl)
	transactionRepo := NewMockTransactionRepo(ctrl)

	service := New(userRepo, transactionRepo, policy)
	service.now = func() time.Time { return fixedNow }
	return service, userRepo, transactionRepo
}

func ptr[T any](v T) *T { return &v }

func echoCreate(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	tx.ID = 100
	tx.Reference = "REF-0000000001"
	return tx, nil
}

func TestResolveBonus(t *testing.T) {
	ctx := context.Background()
	referrer := &domain.User{ID: 1, Username: "alice", ReferralCode: "ABC123"}

	tests := []struct {
		name        string
		policy      domain.ReferralPolicy
		depositor   *domain.User
		amount      decimal.Decimal
		prepareMock func(userRepo *MockUserRepo, transactionRepo *MockTransactionRepo)
		expectBonus string
		expectErr   bool
	}{
		{
			name:        "No referrer",
			policy:      domain.ReferralEveryDeposit,
			depositor:   &domain.User{ID: 2},
			amount:      decimal.NewFromInt(20),
			prepareMock: func(*MockUserRepo, *MockTransactionRepo) {},
		},
		{
			name:        "Malformed code is ignored",
			policy:      domain.ReferralEveryDeposit,
			depositor:   &domain.User{ID: 2, ReferredBy: ptr("x' OR 1=1")},
			amount:      decimal.NewFromInt(20),
			prepareMock: func(*MockUserRepo, *MockTransactionRepo) {},
		},
		{
			name:      "Dangling code yields nothing",
			policy:    domain.ReferralEveryDeposit,
			depositor: &domain.User{ID: 2, ReferredBy: ptr("NOPE0000")},
			amount:    decimal.NewFromInt(20),
			prepareMock: func(userRepo *MockUserRepo, _ *MockTransactionRepo) {
				userRepo.EXPECT().FindByReferralCode(ctx, "NOPE0000").Return(nil, nil)
			},
		},
		{
			name:      "Five percent of the deposit",
			policy:    domain.ReferralEveryDeposit,
			depositor: &domain.User{ID: 2, ReferredBy: ptr("ABC123")},
			amount:    decimal.NewFromInt(20),
			prepareMock: func(userRepo *MockUserRepo, transactionRepo *MockTransactionRepo) {
				userRepo.EXPECT().FindByReferralCode(ctx, "ABC123").Return(referrer, nil)
				transactionRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(echoCreate)
			},
			expectBonus: "1",
		},
		{
			name:      "Lookup failure",
			policy:    domain.ReferralEveryDeposit,
			depositor: &domain.User{ID: 2, ReferredBy: ptr("ABC123")},
			amount:    decimal.NewFromInt(20),
			prepareMock: func(userRepo *MockUserRepo, _ *MockTransactionRepo) {
				userRepo.EXPECT().FindByReferralCode(ctx, "ABC123").Return(nil, errors.New("database error"))
			},
			expectErr: true,
		},
		{
			name:      "Create failure",
			policy:    domain.ReferralEveryDeposit,
			depositor: &domain.User{ID: 2, ReferredBy: ptr("ABC123")},
			amount:    decimal.NewFromInt(20),
			prepareMock: func(userRepo *MockUserRepo, transactionRepo *MockTransactionRepo) {
				userRepo.EXPECT().FindByReferralCode(ctx, "ABC123").Return(referrer, nil)
				transactionRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil, errors.New("database error"))
			},
			expectErr: true,
		},
		{
			name:      "First deposit policy pays the first deposit",
			policy:    domain.ReferralFirstDeposit,
			depositor: &domain.User{ID: 2, ReferredBy: ptr("ABC123")},
			amount:    decimal.NewFromInt(10),
			prepareMock: func(userRepo *MockUserRepo, transactionRepo *MockTransactionRepo) {
				userRepo.EXPECT().FindByReferralCode(ctx, "ABC123").Return(referrer, nil)
				transactionRepo.EXPECT().CountByUser(ctx, 2, domain.TransactionDeposit, domain.StatusCompleted).Return(1, nil)
				transactionRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(echoCreate)
			},
			expectBonus: "0.5",
		},
		{
			name:      "First deposit policy skips later deposits",
			policy:    domain.ReferralFirstDeposit,
			depositor: &domain.User{ID: 2, ReferredBy: ptr("ABC123")},
			amount:    decimal.NewFromInt(10),
			prepareMock: func(userRepo *MockUserRepo, transactionRepo *MockTransactionRepo) {
				userRepo.EXPECT().FindByReferralCode(ctx, "ABC123").Return(referrer, nil)
				transactionRepo.EXPECT().CountByUser(ctx, 2, domain.TransactionDeposit, domain.StatusCompleted).Return(2, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, userRepo, transactionRepo := NewMock(t, tt.policy)
			tt.prepareMock(userRepo, transactionRepo)

			bonus, err := service.ResolveBonus(ctx, tt.depositor, tt.amount)
			if tt.expectErr {
				assert.Error(t, err)
				assert.Nil(t, bonus)
				return
			}
			require.NoError(t, err)
			if tt.expectBonus == "" {
				assert.Nil(t, bonus)
				return
			}
			require.NotNil(t, bonus)
			assert.True(t, bonus.Amount.Equal(decimal.RequireFromString(tt.expectBonus)), bonus.Amount.String())
			assert.Equal(t, referrer.ID, bonus.UserID)
			assert.Equal(t, domain.TransactionReferral, bonus.Type)
			assert.Equal(t, domain.StatusCompleted, bonus.Status)
			assert.Equal(t, domain.MethodSystem, bonus.PaymentMethod)
			assert.Equal(t, fixedNow, bonus.CreatedAt)
			require.NotNil(t, bonus.CompletedAt)
			assert.Equal(t, fixedNow, *bonus.CompletedAt)
		})
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{ID: 1, ReferralCode: "AAAA0000"}

	t.Run("Summary collects referred users and earnings", func(t *testing.T) {
		service, userRepo, transactionRepo := NewMock(t, domain.ReferralEveryDeposit)
		userRepo.EXPECT().FindByID(ctx, 1).Return(user, nil)
		userRepo.EXPECT().FindReferredBy(ctx, "AAAA0000").Return([]domain.User{{ID: 2}, {ID: 3}}, nil)
		transactionRepo.EXPECT().FindByUser(ctx, 1, domain.TransactionReferral, domain.StatusCompleted).
			Return([]domain.Transaction{{ID: 7, Amount: decimal.RequireFromString("0.5")}}, nil)
		transactionRepo.EXPECT().SumByUser(ctx, 1, domain.TransactionReferral, domain.StatusCompleted).
			Return(decimal.RequireFromString("0.5"), nil)

		summary, err := service.Summary(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "AAAA0000", summary.Code)
		assert.Len(t, summary.Referred, 2)
		assert.Len(t, summary.Earnings, 1)
		assert.Equal(t, "0.5", summary.TotalEarned.String())
	})

	t.Run("Summary fails when referred users cannot be loaded", func(t *testing.T) {
		service, userRepo, _ := NewMock(t, domain.ReferralEveryDeposit)
		userRepo.EXPECT().FindByID(ctx, 1).Return(user, nil)
		userRepo.EXPECT().FindReferredBy(ctx, "AAAA0000").Return(nil, errors.New("database error"))

		summary, err := service.Summary(ctx, 1)
		assert.Error(t, err)
		assert.Nil(t, summary)
	})

	t.Run("Summary of an unknown user", func(t *testing.T) {
		service, userRepo, _ := NewMock(t, domain.ReferralEveryDeposit)
		userRepo.EXPECT().FindByID(ctx, 9).Return(nil, nil)

		_, err := service.Summary(ctx, 9)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCountReferred(t *testing.T) {
	ctx := context.Background()
	service, userRepo, _ := NewMock(t, domain.ReferralEveryDeposit)
	userRepo.EXPECT().FindByID(ctx, 1).Return(&domain.User{ID: 1, ReferralCode: "AAAA0000"}, nil)
	userRepo.EXPECT().CountReferredBy(ctx, "AAAA0000").Return(4, nil)

	count, err := service.CountReferred(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, 4, count)
}
