package payout

import (
	"context"
	"sync"
	"time"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/GlebRadaev/heistledger/internal/pg"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=engine.go -destination=mock_engine.go -package=payout

const defaultBatchLimit = 1000

type InvestmentRepo interface {
	FindDue(ctx context.Context, openedBefore time.Time, after domain.DueCursor, limit uint32) ([]domain.Investment, error)
	AdvanceLastPayout(ctx context.Context, id int, expected *time.Time, next time.Time) (bool, error)
}

type PayoutRepo interface {
	Create(ctx context.Context, p *domain.Payout) (*domain.Payout, error)
}

type TransactionRepo interface {
	Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
}

type Engine struct {
	investmentRepo  InvestmentRepo
	payoutRepo      PayoutRepo
	transactionRepo TransactionRepo
	txManager       pg.TXManager
	policy          domain.BackfillPolicy
	workerPool      WorkerPoolI
	limit           uint32
	inFlight        sync.Map
}

func NewEngine(
	investmentRepo InvestmentRepo,
	payoutRepo PayoutRepo,
	transactionRepo TransactionRepo,
	txManager pg.TXManager,
	policy domain.BackfillPolicy,
	workerPool WorkerPoolI,
) *Engine {
	return &Engine{
		investmentRepo:  investmentRepo,
		payoutRepo:      payoutRepo,
		transactionRepo: transactionRepo,
		txManager:       txManager,
		policy:          policy,
		workerPool:      workerPool,
		limit:           defaultBatchLimit,
	}
}

// RunPayoutCycle pays every investment due at now. Investments that fail are logged and
// left due for the next cycle; only a failure to load the due set is returned.
// The due set is read in keyset pages so failures left behind never hide later rows.
func (e *Engine) RunPayoutCycle(ctx context.Context, now time.Time) ([]domain.Payout, error) {
	// postgres keeps microseconds, the optimistic check compares what we wrote
	now = now.UTC().Truncate(time.Microsecond)
	cutoff := now.Add(-domain.PayoutPeriod)

	var (
		mu      sync.Mutex
		created []domain.Payout
	)
	attempted := make(map[int]struct{})
	var cursor domain.DueCursor

	for {
		batch, err := e.investmentRepo.FindDue(ctx, cutoff, cursor, e.limit)
		if err != nil {
			zap.L().Error("failed to load due investments", zap.Error(err))
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		cursor = batch[len(batch)-1].Cursor()

		fresh := make([]domain.Investment, 0, len(batch))
		for _, inv := range batch {
			if _, seen := attempted[inv.ID]; seen {
				continue
			}
			attempted[inv.ID] = struct{}{}
			fresh = append(fresh, inv)
		}

		var g errgroup.Group
		for _, inv := range fresh {
			inv := inv
			if _, busy := e.inFlight.LoadOrStore(inv.ID, struct{}{}); busy {
				zap.L().Debug("investment is already being paid", zap.Int("investmentID", inv.ID))
				continue
			}

			g.Go(func() error {
				done := make(chan struct{})
				err := e.workerPool.AddTask(ctx, func() error {
					defer close(done)
					defer e.inFlight.Delete(inv.ID)

					payouts, err := e.payInvestment(ctx, inv, now)
					if err != nil {
						zap.L().Error("failed to pay investment", zap.Int("investmentID", inv.ID), zap.Error(err))
						return nil
					}
					mu.Lock()
					created = append(created, payouts...)
					mu.Unlock()
					return nil
				})
				if err != nil {
					e.inFlight.Delete(inv.ID)
					zap.L().Warn("payout task not scheduled", zap.Int("investmentID", inv.ID), zap.Error(err))
					return nil
				}

				select {
				case <-done:
				case <-ctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()

		if uint32(len(batch)) < e.limit || ctx.Err() != nil {
			break
		}
	}

	zap.L().Info("payout cycle finished",
		zap.Time("now", now),
		zap.Int("investments", len(attempted)),
		zap.Int("payouts", len(created)),
	)
	return created, nil
}

// PayoutDates lists the payout instants owed to inv at now under policy.
func PayoutDates(inv domain.Investment, now time.Time, policy domain.BackfillPolicy) []time.Time {
	if !inv.IsDue(now) {
		return nil
	}
	if policy != domain.BackfillCatchUp {
		return []time.Time{now}
	}

	since := inv.DueSince()
	cycles := int(now.Sub(since) / domain.PayoutPeriod)
	dates := make([]time.Time, 0, cycles)
	for k := 1; k <= cycles; k++ {
		dates = append(dates, since.Add(time.Duration(k)*domain.PayoutPeriod))
	}
	return dates
}

func (e *Engine) payInvestment(ctx context.Context, inv domain.Investment, now time.Time) ([]domain.Payout, error) {
	dates := PayoutDates(inv, now, e.policy)
	if len(dates) == 0 {
		return nil, nil
	}
	amount := inv.Amount.Mul(domain.PayoutRate)

	var payouts []domain.Payout
	err := e.txManager.Begin(ctx, func(ctx context.Context) error {
		advanced, err := e.investmentRepo.AdvanceLastPayout(ctx, inv.ID, inv.LastPayout, dates[len(dates)-1])
		if err != nil {
			return err
		}
		if !advanced {
			zap.L().Debug("investment already paid", zap.Int("investmentID", inv.ID))
			return nil
		}

		for _, date := range dates {
			p, err := e.payoutRepo.Create(ctx, &domain.Payout{
				InvestmentID: inv.ID,
				Amount:       amount,
				PayoutDate:   date,
			})
			if err != nil {
				return err
			}

			completedAt := now
			investmentID := inv.ID
			if _, err := e.transactionRepo.Create(ctx, &domain.Transaction{
				UserID:        inv.UserID,
				InvestmentID:  &investmentID,
				Amount:        amount,
				Type:          domain.TransactionPayout,
				Status:        domain.TransactionPayout.InitialStatus(),
				PaymentMethod: domain.MethodSystem,
				CreatedAt:     now,
				CompletedAt:   &completedAt,
			}); err != nil {
				return err
			}
			payouts = append(payouts, *p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payouts, nil
}
