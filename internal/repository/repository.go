package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicate         = errors.New("duplicate resource")
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConditionFailed is returned when a conditional update matched no row
	// because the row no longer satisfies the condition.
	ErrConditionFailed = errors.New("condition failed")
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx groups repositories bound to one database transaction.
type Tx struct {
	Products  ProductRepository
	Carts     CartRepository
	Checkouts CheckoutRepository
	Orders    OrderRepository
	Coupons   CouponRepository
}

func newTx(db DBTX) Tx {
	return Tx{
		Products:  NewProductRepository(db),
		Carts:     NewCartRepository(db),
		Checkouts: NewCheckoutRepository(db),
		Orders:    NewOrderRepository(db),
		Coupons:   NewCouponRepository(db),
	}
}

type TxRunner interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

type pgTxRunner struct{ pool *pgxpool.Pool }

func NewTxRunner(pool *pgxpool.Pool) TxRunner {
	return &pgTxRunner{pool: pool}
}

// InTx commits when fn returns nil and rolls back otherwise.
func (r *pgTxRunner) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(newTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
