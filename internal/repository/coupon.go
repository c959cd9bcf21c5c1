package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/rabbit-store-api/internal/model"
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *model.Coupon) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	List(ctx context.Context) ([]model.Coupon, error)
	Update(ctx context.Context, coupon *model.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
	MarkUsed(ctx context.Context, id, userID uuid.UUID) error
}

const couponColumns = `id, code, discount_type, discount_value, expires_at, min_purchase, active, used_by,
	created_at, updated_at`

type pgCouponRepo struct{ db DBTX }

func NewCouponRepository(db DBTX) CouponRepository {
	return &pgCouponRepo{db: db}
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	c := &model.Coupon{}
	err := row.Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.ExpiresAt, &c.MinPurchase, &c.Active, &c.UsedBy,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *pgCouponRepo) Create(ctx context.Context, c *model.Coupon) error {
	c.ID = uuid.New()
	if c.UsedBy == nil {
		c.UsedBy = []uuid.UUID{}
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO coupons (id, code, discount_type, discount_value, expires_at, min_purchase, active, used_by,
		 created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()) RETURNING created_at, updated_at`,
		c.ID, c.Code, c.DiscountType, c.DiscountValue, c.ExpiresAt, c.MinPurchase, c.Active, c.UsedBy,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create coupon: %w", err)
	}
	return nil
}

func (r *pgCouponRepo) get(ctx context.Context, query string, arg any) (*model.Coupon, error) {
	c, err := scanCoupon(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return c, nil
}

func (r *pgCouponRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	return r.get(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id)
}

func (r *pgCouponRepo) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return r.get(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code = $1`, code)
}

func (r *pgCouponRepo) List(ctx context.Context) ([]model.Coupon, error) {
	rows, err := r.db.Query(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	var coupons []model.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}
	return coupons, rows.Err()
}

func (r *pgCouponRepo) Update(ctx context.Context, c *model.Coupon) error {
	err := r.db.QueryRow(ctx,
		`UPDATE coupons SET code=$2, discount_type=$3, discount_value=$4, expires_at=$5, min_purchase=$6,
		 active=$7, updated_at=NOW()
		 WHERE id=$1 RETURNING updated_at`,
		c.ID, c.Code, c.DiscountType, c.DiscountValue, c.ExpiresAt, c.MinPurchase, c.Active,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update coupon: %w", err)
	}
	return nil
}

func (r *pgCouponRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkUsed records userID in used_by at most once.
func (r *pgCouponRepo) MarkUsed(ctx context.Context, id, userID uuid.UUID) error {
	ct, err := r.db.Exec(ctx,
		`UPDATE coupons SET
		   used_by = CASE WHEN $2 = ANY(used_by) THEN used_by ELSE array_append(used_by, $2) END,
		   updated_at = NOW()
		 WHERE id = $1`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("mark coupon used: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
