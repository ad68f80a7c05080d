package payoutrepo

import (
	"context"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/GlebRadaev/heistledger/internal/pg"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(ctx context.Context, p *domain.Payout) (*domain.Payout, error) {
	query := `
		INSERT INTO payouts (investment_id, amount, payout_date)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := r.db.QueryRow(ctx, query, p.InvestmentID, p.Amount, p.PayoutDate).Scan(&p.ID); err != nil {
		zap.L().Error("failed to save payout", zap.Int("investmentID", p.InvestmentID), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *Repository) FindByInvestmentID(ctx context.Context, investmentID int) ([]domain.Payout, error) {
	query := `
		SELECT id, investment_id, amount, payout_date
		FROM payouts
		WHERE investment_id = $1
		ORDER BY payout_date ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, investmentID)
	if err != nil {
		zap.L().Error("failed to fetch payouts", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var payouts []domain.Payout
	for rows.Next() {
		var p domain.Payout
		if err := rows.Scan(&p.ID, &p.InvestmentID, &p.Amount, &p.PayoutDate); err != nil {
			zap.L().Error("failed to scan payout row", zap.Error(err))
			return nil, err
		}
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}

// SumByUserID totals every payout credited to investments owned by userID.
func (r *Repository) SumByUserID(ctx context.Context, userID int) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(p.amount), 0)
		FROM payouts p
		JOIN investments i ON i.id = p.investment_id
		WHERE i.user_id = $1
	`
	var sum decimal.Decimal
	if err := r.db.QueryRow(ctx, query, userID).Scan(&sum); err != nil {
		zap.L().Error("failed to sum payouts", zap.Int("userID", userID), zap.Error(err))
		return decimal.Zero, err
	}
	return sum, nil
}
