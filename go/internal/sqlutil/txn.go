package sqlutil

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// WithTx returns a context carrying tx so that repositories called with it join the transaction.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFrom returns the transaction carried by ctx, if any.
func TxFrom(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

// Conn returns the transaction in ctx, or the pool when there is none.
func Conn(ctx context.Context, pool *pgxpool.Pool) DBTX {
	if tx, ok := TxFrom(ctx); ok {
		return tx
	}
	return pool
}

// Run executes fn inside a transaction.
// If fn returns an error the tx rolls back, else it commits.
// When ctx already carries a transaction fn joins it and the outer caller owns commit.
func Run(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context, tx pgx.Tx) error) error {
	if tx, ok := TxFrom(ctx); ok {
		return fn(ctx, tx)
	}
	tx, err := pool.Begin(ctx) // BEGIN
	if err != nil {
		return err
	}
	if err := fn(WithTx(ctx, tx), tx); err != nil {
		_ = tx.Rollback(ctx) // ROLLBACK
		return err
	}
	return tx.Commit(ctx) // COMMIT
}

// Transactor runs a unit of work. Repositories called with the ctx passed to fn join it.
type Transactor interface {
	Transact(ctx context.Context, fn func(ctx context.Context) error) error
}

// PoolTransactor runs units of work as pgx transactions.
type PoolTransactor struct {
	pool *pgxpool.Pool
}

func NewTransactor(pool *pgxpool.Pool) *PoolTransactor {
	return &PoolTransactor{pool: pool}
}

func (t *PoolTransactor) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	return Run(ctx, t.pool, func(ctx context.Context, _ pgx.Tx) error {
		return fn(ctx)
	})
}

// DirectTransactor calls fn without a transaction. In-memory stores use it; their
// writes are individually atomic.
type DirectTransactor struct{}

func (DirectTransactor) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
