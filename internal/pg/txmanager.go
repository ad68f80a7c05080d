package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Beginner is satisfied by *pgxpool.Pool and pgxmock.PgxPoolIface.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type TxManager struct {
	db Beginner
}

func NewTXManager(db Beginner) *TxManager {
	return &TxManager{db: db}
}

// Begin commits when fn returns nil and rolls back otherwise. Nested calls reuse
// the outer transaction.
func (m *TxManager) Begin(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.db.Begin(ctx)
	if err != nil {
		zap.L().Error("can't begin transaction", zap.Error(err))
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			zap.L().Error("can't rollback transaction", zap.Error(rbErr))
			return errors.Join(err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		zap.L().Error("can't commit transaction", zap.Error(err))
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
