package referralservice

import (
	"context"
	"time"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/GlebRadaev/heistledger/pkg/validate"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:generate mockgen -source=referralservice.go -destination=mock_referralservice.go -package=referralservice

type UserRepo interface {
	FindByID(ctx context.Context, id int) (*domain.User, error)
	FindByReferralCode(ctx context.Context, code string) (*domain.User, error)
	FindReferredBy(ctx context.Context, code string) ([]domain.User, error)
	CountReferredBy(ctx context.Context, code string) (int, error)
}

type TransactionRepo interface {
	Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	FindByUser(ctx context.Context, userID int, typ domain.TransactionType, status domain.TransactionStatus) ([]domain.Transaction, error)
	SumByUser(ctx context.Context, userID int, typ domain.TransactionType, status domain.TransactionStatus) (decimal.Decimal, error)
	CountByUser(ctx context.Context, userID int, typ domain.TransactionType, status domain.TransactionStatus) (int, error)
}

type Service struct {
	userRepo        UserRepo
	transactionRepo TransactionRepo
	policy          domain.ReferralPolicy
	now             func() time.Time
}

func New(userRepo UserRepo, transactionRepo TransactionRepo, policy domain.ReferralPolicy) *Service {
	return &Service{
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		policy:          policy,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// ResolveBonus credits the depositor's referrer with a share of a completed deposit.
// It returns nil without error when the depositor has no resolvable referrer or the
// policy excludes this deposit. Must run in the unit of work that completed the deposit.
func (s *Service) ResolveBonus(ctx context.Context, depositor *domain.User, depositAmount decimal.Decimal) (*domain.Transaction, error) {
	if depositor == nil || depositor.ReferredBy == nil {
		return nil, nil
	}
	code := *depositor.ReferredBy
	if !validate.IsReferralCode(code) {
		zap.L().Debug("ignoring malformed referral code", zap.Int("userID", depositor.ID), zap.String("code", code))
		return nil, nil
	}

	referrer, err := s.userRepo.FindByReferralCode(ctx, code)
	if err != nil {
		zap.L().Error("failed to resolve referrer", zap.String("code", code), zap.Error(err))
		return nil, err
	}
	if referrer == nil {
		zap.L().Info("referral code does not resolve", zap.Int("userID", depositor.ID), zap.String("code", code))
		return nil, nil
	}

	if s.policy == domain.ReferralFirstDeposit {
		// the deposit being rewarded is already completed in this unit of work, and the
		// caller holds the depositor row lock so sibling completions are visible here
		completed, err := s.transactionRepo.CountByUser(ctx, depositor.ID, domain.TransactionDeposit, domain.StatusCompleted)
		if err != nil {
			zap.L().Error("failed to count completed deposits", zap.Int("userID", depositor.ID), zap.Error(err))
			return nil, err
		}
		if completed > 1 {
			return nil, nil
		}
	}

	now := s.now()
	bonus, err := s.transactionRepo.Create(ctx, &domain.Transaction{
		UserID:        referrer.ID,
		Amount:        depositAmount.Mul(domain.ReferralRate),
		Type:          domain.TransactionReferral,
		Status:        domain.TransactionReferral.InitialStatus(),
		PaymentMethod: domain.MethodSystem,
		CreatedAt:     now,
		CompletedAt:   &now,
	})
	if err != nil {
		zap.L().Error("failed to create referral bonus", zap.Int("referrerID", referrer.ID), zap.Error(err))
		return nil, err
	}
	zap.L().Info("referral bonus credited",
		zap.Int("referrerID", referrer.ID),
		zap.Int("depositorID", depositor.ID),
		zap.String("amount", bonus.Amount.String()),
		zap.String("reference", bonus.Reference),
	)
	return bonus, nil
}

func (s *Service) Summary(ctx context.Context, userID int) (*domain.ReferralSummary, error) {
	user, err := s.referrer(ctx, userID)
	if err != nil {
		return nil, err
	}
	referred, err := s.userRepo.FindReferredBy(ctx, user.ReferralCode)
	if err != nil {
		return nil, err
	}
	earnings, err := s.transactionRepo.FindByUser(ctx, user.ID, domain.TransactionReferral, domain.StatusCompleted)
	if err != nil {
		return nil, err
	}
	total, err := s.transactionRepo.SumByUser(ctx, user.ID, domain.TransactionReferral, domain.StatusCompleted)
	if err != nil {
		return nil, err
	}
	return &domain.ReferralSummary{
		Code:        user.ReferralCode,
		Referred:    referred,
		Earnings:    earnings,
		TotalEarned: total,
	}, nil
}

func (s *Service) CountReferred(ctx context.Context, userID int) (int, error) {
	user, err := s.referrer(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.userRepo.CountReferredBy(ctx, user.ReferralCode)
}

func (s *Service) referrer(ctx context.Context, userID int) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to get user", zap.Int("userID", userID), zap.Error(err))
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}
