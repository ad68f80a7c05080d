package investmentrepo

import (
	"context"
	"errors"
	"time"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/GlebRadaev/heistledger/internal/pg"
	"github.com/jackc/pgx/v5"
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

type scanner interface {
	Scan(dest ...any) error
}

func scanInvestment(row scanner) (*domain.Investment, error) {
	var inv domain.Investment
	err := row.Scan(&inv.ID, &inv.UserID, &inv.Amount, &inv.Plan, &inv.StartDate, &inv.LastPayout, &inv.Active)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func collect(rows pgx.Rows) ([]domain.Investment, error) {
	defer rows.Close()

	var investments []domain.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			zap.L().Error("can't scan investment row", zap.Error(err))
			return nil, err
		}
		investments = append(investments, *inv)
	}
	return investments, rows.Err()
}

func (r *Repository) Create(ctx context.Context, inv *domain.Investment) (*domain.Investment, error) {
	query := `
		INSERT INTO investments (user_id, amount, plan, start_date, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query, inv.UserID, inv.Amount, string(inv.Plan), inv.StartDate, inv.Active).Scan(&inv.ID)
	if err != nil {
		zap.L().Error("can't save investment", zap.Error(err))
		return nil, err
	}
	return inv, nil
}

func (r *Repository) FindByID(ctx context.Context, id int) (*domain.Investment, error) {
	query := `
		SELECT id, user_id, amount, plan, start_date, last_payout, active
		FROM investments
		WHERE id = $1
	`
	inv, err := scanInvestment(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find investment", zap.Error(err))
		return nil, err
	}
	return inv, nil
}

func (r *Repository) FindActiveByUserID(ctx context.Context, userID int) ([]domain.Investment, error) {
	query := `
		SELECT id, user_id, amount, plan, start_date, last_payout, active
		FROM investments
		WHERE user_id = $1 AND active
		ORDER BY start_date DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		zap.L().Error("can't get investments", zap.Error(err))
		return nil, err
	}
	return collect(rows)
}

// FindDue returns active investments with a completed deposit whose payout window
// opened at or before openedBefore, longest-waiting first, strictly after the cursor.
func (r *Repository) FindDue(ctx context.Context, openedBefore time.Time, after domain.DueCursor, limit uint32) ([]domain.Investment, error) {
	query := `
		SELECT i.id, i.user_id, i.amount, i.plan, i.start_date, i.last_payout, i.active
		FROM investments i
		WHERE i.active
			AND COALESCE(i.last_payout, i.start_date) <= $1
			AND EXISTS (
				SELECT 1 FROM transactions t
				WHERE t.investment_id = i.id AND t.type = 'deposit' AND t.status = 'completed'
			)
			AND (COALESCE(i.last_payout, i.start_date), i.id) > ($2, $3)
		ORDER BY COALESCE(i.last_payout, i.start_date) ASC, i.id ASC
		LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, openedBefore, after.Since, after.ID, int(limit))
	if err != nil {
		zap.L().Error("can't get due investments", zap.Error(err))
		return nil, err
	}
	return collect(rows)
}

// AdvanceLastPayout moves last_payout from expected to next. It reports false when
// the stored value no longer matches expected, i.e. another pass already paid.
func (r *Repository) AdvanceLastPayout(ctx context.Context, id int, expected *time.Time, next time.Time) (bool, error) {
	query := `
		UPDATE investments
		SET last_payout = $1
		WHERE id = $2 AND active AND last_payout IS NOT DISTINCT FROM $3
	`
	tag, err := r.db.Exec(ctx, query, next, id, expected)
	if err != nil {
		zap.L().Error("failed to advance last payout", zap.Int("investmentID", id), zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
