package pg

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:generate mockgen -source=pg.go -destination=mock_pg.go -package=pg

// Database is the query surface shared by *pgxpool.Pool, pgx.Tx and pgxmock.
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TXManager runs fn inside a database transaction. Repositories called with the
// ctx passed to fn join that transaction.
type TXManager interface {
	Begin(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// Conn routes queries to the transaction carried by ctx, or to the pool otherwise.
type Conn struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Conn {
	return &Conn{pool: pool}
}

func (c *Conn) conn(ctx context.Context) Database {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return c.pool
}

func (c *Conn) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return c.conn(ctx).Exec(ctx, sql, arguments...)
}

func (c *Conn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return c.conn(ctx).Query(ctx, sql, args...)
}

func (c *Conn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return c.conn(ctx).QueryRow(ctx, sql, args...)
}
