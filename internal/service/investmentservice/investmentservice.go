package investmentservice

import (
	"context"
	"time"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/GlebRadaev/heistledger/internal/pg"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:generate mockgen -source=investmentservice.go -destination=mock_investmentservice.go -package=investmentservice

type InvestmentRepo interface {
	Create(ctx context.Context, inv *domain.Investment) (*domain.Investment, error)
	FindActiveByUserID(ctx context.Context, userID int) ([]domain.Investment, error)
}

type TransactionRepo interface {
	Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	FindByID(ctx context.Context, id int) (*domain.Transaction, error)
	CompleteDeposit(ctx context.Context, id, userID int, method domain.PaymentMethod, at time.Time) (*domain.Transaction, error)
}

type UserRepo interface {
	FindByIDForUpdate(ctx context.Context, id int) (*domain.User, error)
}

type ReferralResolver interface {
	ResolveBonus(ctx context.Context, depositor *domain.User, depositAmount decimal.Decimal) (*domain.Transaction, error)
}

type Service struct {
	investmentRepo  InvestmentRepo
	transactionRepo TransactionRepo
	userRepo        UserRepo
	referrals       ReferralResolver
	txManager       pg.TXManager
	now             func() time.Time
}

func New(investmentRepo InvestmentRepo, transactionRepo TransactionRepo, userRepo UserRepo, referrals ReferralResolver, txManager pg.TXManager) *Service {
	return &Service{
		investmentRepo:  investmentRepo,
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		referrals:       referrals,
		txManager:       txManager,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// OpenInvestment opens an active investment for one of the fixed plan amounts
// together with the pending deposit that funds it.
func (s *Service) OpenInvestment(ctx context.Context, userID int, amount decimal.Decimal) (*domain.Investment, *domain.Transaction, error) {
	plan, err := domain.PlanForAmount(amount)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	var (
		investment *domain.Investment
		deposit    *domain.Transaction
	)
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		investment, err = s.investmentRepo.Create(ctx, &domain.Investment{
			UserID:    userID,
			Amount:    plan.Amount(),
			Plan:      plan,
			StartDate: now,
			Active:    true,
		})
		if err != nil {
			return err
		}
		deposit, err = s.transactionRepo.Create(ctx, &domain.Transaction{
			UserID:        userID,
			InvestmentID:  &investment.ID,
			Amount:        investment.Amount,
			Type:          domain.TransactionDeposit,
			Status:        domain.TransactionDeposit.InitialStatus(),
			PaymentMethod: domain.MethodPending,
			CreatedAt:     now,
		})
		return err
	})
	if err != nil {
		zap.L().Error("failed to open investment", zap.Int("userID", userID), zap.Error(err))
		return nil, nil, err
	}

	zap.L().Info("investment opened",
		zap.Int("userID", userID),
		zap.Int("investmentID", investment.ID),
		zap.String("plan", string(plan)),
		zap.String("reference", deposit.Reference),
	)
	return investment, deposit, nil
}

// CompleteDeposit confirms payment of a pending deposit owned by userID and
// credits the referral bonus in the same unit of work.
func (s *Service) CompleteDeposit(ctx context.Context, userID, transactionID int, paymentMethod string) (*domain.Transaction, error) {
	method, err := domain.ParseUserPaymentMethod(paymentMethod)
	if err != nil {
		return nil, err
	}

	var completed *domain.Transaction
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		tx, err := s.transactionRepo.FindByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if tx == nil {
			return domain.ErrNotFound
		}
		if tx.UserID != userID || tx.Type != domain.TransactionDeposit || !tx.Status.CanTransitionTo(domain.StatusCompleted) {
			return domain.ErrInvalidTransactionState
		}

		completed, err = s.transactionRepo.CompleteDeposit(ctx, transactionID, userID, method, s.now())
		if err != nil {
			return err
		}
		if completed == nil {
			// lost the race to a concurrent completion
			return domain.ErrInvalidTransactionState
		}

		// serializes completions by one depositor so the first-deposit count sees the others
		depositor, err := s.userRepo.FindByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if depositor == nil {
			return domain.ErrNotFound
		}
		_, err = s.referrals.ResolveBonus(ctx, depositor, completed.Amount)
		return err
	})
	if err != nil {
		zap.L().Warn("deposit not completed",
			zap.Int("userID", userID),
			zap.Int("transactionID", transactionID),
			zap.Error(err),
		)
		return nil, err
	}

	zap.L().Info("deposit completed",
		zap.Int("userID", userID),
		zap.String("reference", completed.Reference),
		zap.String("method", string(method)),
	)
	return completed, nil
}

func (s *Service) ActiveInvestments(ctx context.Context, userID int) ([]domain.Investment, error) {
	investments, err := s.investmentRepo.FindActiveByUserID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to get investments", zap.Int("userID", userID), zap.Error(err))
		return nil, err
	}
	return investments, nil
}
