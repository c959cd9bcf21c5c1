package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/rabbit-store-api/internal/model"
)

type CartRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	GetByGuestID(ctx context.Context, guestID string) (*model.Cart, error)
	Create(ctx context.Context, cart *model.Cart) error
	Save(ctx context.Context, cart *model.Cart) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

const cartColumns = `id, user_id, guest_id, items, total_price, created_at, updated_at`

type pgCartRepo struct{ db DBTX }

func NewCartRepository(db DBTX) CartRepository {
	return &pgCartRepo{db: db}
}

func (r *pgCartRepo) get(ctx context.Context, query string, arg any) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&cart.ID, &cart.UserID, &cart.GuestID, &cart.Items, &cart.TotalPrice, &cart.CreatedAt, &cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (r *pgCartRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	return r.get(ctx, `SELECT `+cartColumns+` FROM carts WHERE user_id = $1`, userID)
}

func (r *pgCartRepo) GetByGuestID(ctx context.Context, guestID string) (*model.Cart, error) {
	return r.get(ctx, `SELECT `+cartColumns+` FROM carts WHERE guest_id = $1`, guestID)
}

func (r *pgCartRepo) Create(ctx context.Context, cart *model.Cart) error {
	cart.ID = uuid.New()
	if cart.Items == nil {
		cart.Items = []model.LineItem{}
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO carts (id, user_id, guest_id, items, total_price, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING created_at, updated_at`,
		cart.ID, cart.UserID, cart.GuestID, cart.Items, cart.TotalPrice,
	).Scan(&cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create cart: %w", err)
	}
	return nil
}

// Save overwrites owner, lines and total of an existing cart.
func (r *pgCartRepo) Save(ctx context.Context, cart *model.Cart) error {
	if cart.Items == nil {
		cart.Items = []model.LineItem{}
	}
	err := r.db.QueryRow(ctx,
		`UPDATE carts SET user_id=$2, guest_id=$3, items=$4, total_price=$5, updated_at=NOW()
		 WHERE id=$1 RETURNING updated_at`,
		cart.ID, cart.UserID, cart.GuestID, cart.Items, cart.TotalPrice,
	).Scan(&cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (r *pgCartRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByUserID is a no-op when the user has no cart.
func (r *pgCartRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete user cart: %w", err)
	}
	return nil
}
