package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/rabbit-store-api/internal/model"
)

type CheckoutRepository interface {
	Create(ctx context.Context, checkout *model.Checkout) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Checkout, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Checkout, error)
	MarkPaid(ctx context.Context, id uuid.UUID, details json.RawMessage, paidAt time.Time) (*model.Checkout, error)
	MarkFinalized(ctx context.Context, id uuid.UUID, at time.Time) error
}

const checkoutColumns = `id, user_id, items, shipping_address, payment_method, total_price, coupon_code,
	discount_amount, payment_status, payment_details, is_paid, paid_at, is_finalized, finalized_at,
	created_at, updated_at`

type pgCheckoutRepo struct{ db DBTX }

func NewCheckoutRepository(db DBTX) CheckoutRepository {
	return &pgCheckoutRepo{db: db}
}

func scanCheckout(row pgx.Row) (*model.Checkout, error) {
	c := &model.Checkout{}
	err := row.Scan(
		&c.ID, &c.UserID, &c.Items, &c.ShippingAddress, &c.PaymentMethod, &c.TotalPrice, &c.CouponCode,
		&c.DiscountAmount, &c.PaymentStatus, &c.PaymentDetails, &c.IsPaid, &c.PaidAt, &c.IsFinalized, &c.FinalizedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *pgCheckoutRepo) Create(ctx context.Context, c *model.Checkout) error {
	c.ID = uuid.New()
	err := r.db.QueryRow(ctx,
		`INSERT INTO checkouts (id, user_id, items, shipping_address, payment_method, total_price, coupon_code,
		 discount_amount, payment_status, is_paid, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		c.ID, c.UserID, c.Items, c.ShippingAddress, c.PaymentMethod, c.TotalPrice, c.CouponCode,
		c.DiscountAmount, c.PaymentStatus, c.IsPaid,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create checkout: %w", err)
	}
	return nil
}

func (r *pgCheckoutRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Checkout, error) {
	return r.get(ctx, `SELECT `+checkoutColumns+` FROM checkouts WHERE id = $1`, id)
}

func (r *pgCheckoutRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Checkout, error) {
	return r.get(ctx, `SELECT `+checkoutColumns+` FROM checkouts WHERE id = $1 FOR UPDATE`, id)
}

func (r *pgCheckoutRepo) get(ctx context.Context, query string, id uuid.UUID) (*model.Checkout, error) {
	c, err := scanCheckout(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get checkout: %w", err)
	}
	return c, nil
}

// MarkPaid only transitions unpaid checkouts; ErrConditionFailed otherwise.
func (r *pgCheckoutRepo) MarkPaid(ctx context.Context, id uuid.UUID, details json.RawMessage, paidAt time.Time) (*model.Checkout, error) {
	c, err := scanCheckout(r.db.QueryRow(ctx,
		`UPDATE checkouts SET is_paid = TRUE, payment_status = $2, payment_details = $3, paid_at = $4, updated_at = NOW()
		 WHERE id = $1 AND NOT is_paid
		 RETURNING `+checkoutColumns,
		id, model.PaymentStatusPaid, details, paidAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConditionFailed
		}
		return nil, fmt.Errorf("mark checkout paid: %w", err)
	}
	return c, nil
}

// MarkFinalized only transitions checkouts that are not finalized yet.
func (r *pgCheckoutRepo) MarkFinalized(ctx context.Context, id uuid.UUID, at time.Time) error {
	ct, err := r.db.Exec(ctx,
		`UPDATE checkouts SET is_finalized = TRUE, finalized_at = $2, updated_at = NOW()
		 WHERE id = $1 AND NOT is_finalized`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("mark checkout finalized: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrConditionFailed
	}
	return nil
}
