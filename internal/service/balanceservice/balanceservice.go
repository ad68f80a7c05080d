package balanceservice

import (
	"context"
	"time"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:generate mockgen -source=balanceservice.go -destination=mock_balanceservice.go -package=balanceservice

type PayoutRepo interface {
	SumByUserID(ctx context.Context, userID int) (decimal.Decimal, error)
}

type TransactionRepo interface {
	Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	SumByUser(ctx context.Context, userID int, typ domain.TransactionType, status domain.TransactionStatus) (decimal.Decimal, error)
	FindRecentByUserID(ctx context.Context, userID int, limit int) ([]domain.Transaction, error)
}

type Service struct {
	payoutRepo      PayoutRepo
	transactionRepo TransactionRepo
	now             func() time.Time
}

func New(payoutRepo PayoutRepo, transactionRepo TransactionRepo) *Service {
	return &Service{
		payoutRepo:      payoutRepo,
		transactionRepo: transactionRepo,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// AvailableBalance is the sum of the user's payouts and completed referral bonuses.
// Withdrawal requests are not deducted.
func (s *Service) AvailableBalance(ctx context.Context, userID int) (decimal.Decimal, error) {
	payouts, err := s.payoutRepo.SumByUserID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to sum payouts", zap.Int("userID", userID), zap.Error(err))
		return decimal.Zero, err
	}
	referrals, err := s.transactionRepo.SumByUser(ctx, userID, domain.TransactionReferral, domain.StatusCompleted)
	if err != nil {
		zap.L().Error("failed to sum referral bonuses", zap.Int("userID", userID), zap.Error(err))
		return decimal.Zero, err
	}
	return payouts.Add(referrals), nil
}

// RequestWithdrawal records a pending withdrawal. Fulfilment happens elsewhere.
func (s *Service) RequestWithdrawal(ctx context.Context, userID int, amount decimal.Decimal, paymentMethod string) (*domain.Transaction, error) {
	if !amount.IsPositive() || !domain.FitsAmountScale(amount) {
		return nil, domain.ErrInvalidAmount
	}
	method, err := domain.ParseUserPaymentMethod(paymentMethod)
	if err != nil {
		return nil, err
	}

	available, err := s.AvailableBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(available) {
		zap.L().Info("withdrawal exceeds available balance",
			zap.Int("userID", userID),
			zap.String("amount", amount.String()),
			zap.String("available", available.String()),
		)
		return nil, domain.ErrInsufficientBalance
	}

	withdrawal, err := s.transactionRepo.Create(ctx, &domain.Transaction{
		UserID:        userID,
		Amount:        amount,
		Type:          domain.TransactionWithdrawal,
		Status:        domain.TransactionWithdrawal.InitialStatus(),
		PaymentMethod: method,
		CreatedAt:     s.now(),
	})
	if err != nil {
		zap.L().Error("failed to create withdrawal record", zap.Error(err))
		return nil, err
	}
	zap.L().Info("withdrawal requested", zap.Int("userID", userID), zap.String("reference", withdrawal.Reference))
	return withdrawal, nil
}

func (s *Service) RecentTransactions(ctx context.Context, userID int, limit int) ([]domain.Transaction, error) {
	transactions, err := s.transactionRepo.FindRecentByUserID(ctx, userID, limit)
	if err != nil {
		zap.L().Error("failed to fetch transactions", zap.Error(err))
		return nil, err
	}
	return transactions, nil
}
