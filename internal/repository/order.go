package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/flicky/rabbit-store-api/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	List(ctx context.Context, limit, offset int) ([]model.Order, int, error)
	Recent(ctx context.Context, limit int) ([]model.Order, error)
	UpdateStatus(ctx context.Context, order *model.Order) error
	Delete(ctx context.Context, id uuid.UUID) error

	Count(ctx context.Context) (int, error)
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
	SalesByPeriod(ctx context.Context, period string) ([]model.SalesBucket, error)
	StatisticsByPeriod(ctx context.Context, period string) ([]model.SalesBucket, error)
}

const orderColumns = `o.id, o.checkout_id, o.user_id, o.items, o.shipping_address, o.payment_method, o.total_price,
	o.coupon_code, o.discount_amount, o.is_paid, o.paid_at, o.is_delivered, o.delivered_at, o.payment_status,
	o.payment_details, o.status, o.created_at, o.updated_at`

// orderWithUser adds the buyer's name and e-mail for admin listings.
const orderWithUser = `SELECT ` + orderColumns + `, COALESCE(u.name, ''), COALESCE(u.email, '')
	FROM orders o LEFT JOIN users u ON u.id = o.user_id`

// periodBuckets holds the bucket expression (over the column named by "{col}")
// and the GROUP BY list per period.
var periodBuckets = map[string][2]string{
	"monthly":   {"EXTRACT(MONTH FROM {col})::int", "1, 2"},
	"quarterly": {"EXTRACT(QUARTER FROM {col})::int", "1, 2"},
	"yearly":    {"0", "1"},
}

type pgOrderRepo struct{ db DBTX }

func NewOrderRepository(db DBTX) OrderRepository {
	return &pgOrderRepo{db: db}
}

func orderFields(o *model.Order) []any {
	return []any{
		&o.ID, &o.CheckoutID, &o.UserID, &o.Items, &o.ShippingAddress, &o.PaymentMethod, &o.TotalPrice,
		&o.CouponCode, &o.DiscountAmount, &o.IsPaid, &o.PaidAt, &o.IsDelivered, &o.DeliveredAt, &o.PaymentStatus,
		&o.PaymentDetails, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	}
}

func scanOrderWithUser(row pgx.Row) (*model.Order, error) {
	o := &model.Order{}
	if err := row.Scan(append(orderFields(o), &o.UserName, &o.UserEmail)...); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *pgOrderRepo) Create(ctx context.Context, o *model.Order) error {
	o.ID = uuid.New()
	err := r.db.QueryRow(ctx,
		`INSERT INTO orders (id, checkout_id, user_id, items, shipping_address, payment_method, total_price,
		 coupon_code, discount_amount, is_paid, paid_at, is_delivered, payment_status, payment_details, status,
		 created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, FALSE, $12, $13, $14, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		o.ID, o.CheckoutID, o.UserID, o.Items, o.ShippingAddress, o.PaymentMethod, o.TotalPrice,
		o.CouponCode, o.DiscountAmount, o.IsPaid, o.PaidAt, o.PaymentStatus, o.PaymentDetails, o.Status,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o, err := scanOrderWithUser(r.db.QueryRow(ctx, orderWithUser+` WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (r *pgOrderRepo) query(ctx context.Context, sql string, args ...any) ([]model.Order, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrderWithUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *pgOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return r.query(ctx, orderWithUser+` WHERE o.user_id = $1 ORDER BY o.created_at DESC`, userID)
}

func (r *pgOrderRepo) List(ctx context.Context, limit, offset int) ([]model.Order, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	orders, err := r.query(ctx, orderWithUser+` ORDER BY o.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *pgOrderRepo) Recent(ctx context.Context, limit int) ([]model.Order, error) {
	return r.query(ctx, orderWithUser+` ORDER BY o.created_at DESC LIMIT $1`, limit)
}

// UpdateStatus persists status and the delivery flags.
func (r *pgOrderRepo) UpdateStatus(ctx context.Context, o *model.Order) error {
	err := r.db.QueryRow(ctx,
		`UPDATE orders SET status = $2, is_delivered = $3, delivered_at = $4, updated_at = NOW()
		 WHERE id = $1 RETURNING updated_at`,
		o.ID, o.Status, o.IsDelivered, o.DeliveredAt,
	).Scan(&o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgOrderRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (r *pgOrderRepo) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(total_price), 0) FROM orders`).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum revenue: %w", err)
	}
	return total, nil
}

// SalesByPeriod groups paid orders by year and the given period of paid_at,
// oldest first.
func (r *pgOrderRepo) SalesByPeriod(ctx context.Context, period string) ([]model.SalesBucket, error) {
	return r.bucketsByPeriod(ctx, period, "paid_at", "is_paid AND paid_at IS NOT NULL")
}

// StatisticsByPeriod groups every order, paid or not, by created_at.
func (r *pgOrderRepo) StatisticsByPeriod(ctx context.Context, period string) ([]model.SalesBucket, error) {
	return r.bucketsByPeriod(ctx, period, "created_at", "TRUE")
}

func (r *pgOrderRepo) bucketsByPeriod(ctx context.Context, period, column, where string) ([]model.SalesBucket, error) {
	p, ok := periodBuckets[period]
	if !ok {
		return nil, fmt.Errorf("unknown period %q", period)
	}
	bucket := strings.ReplaceAll(p[0], "{col}", column)
	rows, err := r.db.Query(ctx, fmt.Sprintf(
		`SELECT EXTRACT(YEAR FROM %s)::int AS year, %s AS period, COALESCE(SUM(total_price), 0), COUNT(*)
		 FROM orders WHERE %s
		 GROUP BY %s ORDER BY %s`, column, bucket, where, p[1], p[1]))
	if err != nil {
		return nil, fmt.Errorf("orders by %s: %w", period, err)
	}
	defer rows.Close()

	var buckets []model.SalesBucket
	for rows.Next() {
		var b model.SalesBucket
		if err := rows.Scan(&b.Year, &b.Period, &b.TotalSales, &b.Count); err != nil {
			return nil, fmt.Errorf("scan period bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
