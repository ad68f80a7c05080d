package transactionrepo

import (
	"context"
	"errors"
	"time"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/GlebRadaev/heistledger/internal/pg"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxReferenceAttempts bounds how many fresh references Create tries before giving up.
const maxReferenceAttempts = 5

const transactionColumns = `id, user_id, investment_id, amount, type, status, payment_method, reference, created_at, completed_at`

type Repository struct {
	db           pg.Database
	newReference func(domain.TransactionType) string
}

func New(db pg.Database) *Repository {
	return &Repository{
		db:           db,
		newReference: domain.NewReference,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := row.Scan(
		&tx.ID, &tx.UserID, &tx.InvestmentID, &tx.Amount, &tx.Type, &tx.Status,
		&tx.PaymentMethod, &tx.Reference, &tx.CreatedAt, &tx.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Create inserts tx, assigning a fresh reference when none is set. A reference
// collision is retried with a new reference; the store's unique constraint is
// the arbiter, so concurrent writers never share a reference.
func (r *Repository) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	query := `
		INSERT INTO transactions (user_id, investment_id, amount, type, status, payment_method, reference, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (reference) DO NOTHING
		RETURNING id
	`
	if tx.Reference == "" {
		tx.Reference = r.newReference(tx.Type)
	}
	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		err := r.db.QueryRow(ctx, query,
			tx.UserID, tx.InvestmentID, tx.Amount, string(tx.Type), string(tx.Status),
			string(tx.PaymentMethod), tx.Reference, tx.CreatedAt, tx.CompletedAt,
		).Scan(&tx.ID)
		if err == nil {
			return tx, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			zap.L().Error("can't save transaction", zap.String("type", string(tx.Type)), zap.Error(err))
			return nil, err
		}
		zap.L().Warn("transaction reference collision, regenerating",
			zap.String("reference", tx.Reference), zap.Int("attempt", attempt))
		tx.Reference = r.newReference(tx.Type)
	}
	return nil, &domain.DuplicateKeyError{Field: "reference"}
}

func (r *Repository) FindByID(ctx context.Context, id int) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	tx, err := scanTransaction(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find transaction", zap.Error(err))
		return nil, err
	}
	return tx, nil
}

// CompleteDeposit moves a pending deposit owned by userID to completed. It returns
// nil when no such pending deposit exists at the time of the update.
func (r *Repository) CompleteDeposit(ctx context.Context, id, userID int, method domain.PaymentMethod, at time.Time) (*domain.Transaction, error) {
	query := `
		UPDATE transactions
		SET status = 'completed', payment_method = $1, completed_at = $2
		WHERE id = $3 AND user_id = $4 AND type = 'deposit' AND status = 'pending'
		RETURNING ` + transactionColumns
	tx, err := scanTransaction(r.db.QueryRow(ctx, query, string(method), at, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("failed to complete deposit", zap.Int("transactionID", id), zap.Error(err))
		return nil, err
	}
	return tx, nil
}

func (r *Repository) FindRecentByUserID(ctx context.Context, userID int, limit int) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		zap.L().Error("failed to fetch transactions", zap.Error(err))
		return nil, err
	}
	return r.collect(rows)
}

func (r *Repository) FindByUser(ctx context.Context, userID int, typ domain.TransactionType, status domain.TransactionStatus) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND type = $2 AND status = $3
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, userID, string(typ), string(status))
	if err != nil {
		zap.L().Error("failed to fetch transactions", zap.Error(err))
		return nil, err
	}
	return r.collect(rows)
}

func (r *Repository) SumByUser(ctx context.Context, userID int, typ domain.TransactionType, status domain.TransactionStatus) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1 AND type = $2 AND status = $3
	`
	var sum decimal.Decimal
	if err := r.db.QueryRow(ctx, query, userID, string(typ), string(status)).Scan(&sum); err != nil {
		zap.L().Error("failed to sum transactions", zap.Error(err))
		return decimal.Zero, err
	}
	return sum, nil
}

func (r *Repository) CountByUser(ctx context.Context, userID int, typ domain.TransactionType, status domain.TransactionStatus) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM transactions
		WHERE user_id = $1 AND type = $2 AND status = $3
	`
	var count int
	if err := r.db.QueryRow(ctx, query, userID, string(typ), string(status)).Scan(&count); err != nil {
		zap.L().Error("failed to count transactions", zap.Error(err))
		return 0, err
	}
	return count, nil
}

func (r *Repository) collect(rows pgx.Rows) ([]domain.Transaction, error) {
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			zap.L().Error("failed to scan transaction row", zap.Error(err))
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	return transactions, rows.Err()
}
