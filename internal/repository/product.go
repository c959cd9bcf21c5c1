package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/rabbit-store-api/internal/model"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter model.ProductFilter, limit, offset int) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
}

const productColumns = `id, name, description, price, discount_price, stock, sku, category, brand,
	sizes, colors, images, is_featured, is_published, created_at, updated_at`

const prefixedProductColumns = `p.id, p.name, p.description, p.price, p.discount_price, p.stock, p.sku, p.category, p.brand,
	p.sizes, p.colors, p.images, p.is_featured, p.is_published, p.created_at, p.updated_at`

var productSorts = map[string]bool{"name": true, "price": true, "created_at": true}

type pgProductRepo struct{ db DBTX }

func NewProductRepository(db DBTX) ProductRepository {
	return &pgProductRepo{db: db}
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.DiscountPrice, &p.Stock, &p.SKU, &p.Category, &p.Brand,
		&p.Sizes, &p.Colors, &p.Images, &p.IsFeatured, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func normalizeProduct(p *model.Product) {
	if p.Sizes == nil {
		p.Sizes = []string{}
	}
	if p.Colors == nil {
		p.Colors = []string{}
	}
	if p.Images == nil {
		p.Images = []model.ProductImage{}
	}
}

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	product.ID = uuid.New()
	normalizeProduct(product)
	query := `INSERT INTO products (id, name, description, price, discount_price, stock, sku, category, brand,
			  sizes, colors, images, is_featured, is_published, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
			  RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.Price, product.DiscountPrice, product.Stock,
		product.SKU, product.Category, product.Brand, product.Sizes, product.Colors, product.Images,
		product.IsFeatured, product.IsPublished,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetByIDForUpdate locks the row until the surrounding transaction ends.
func (r *pgProductRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r *pgProductRepo) get(ctx context.Context, query string, id uuid.UUID) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func productWhere(f model.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Search != "" {
		args = append(args, f.Search)
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(name ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')`, n, n))
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.MinPrice.Valid {
		add("price >= $%d", f.MinPrice.Decimal)
	}
	if f.MaxPrice.Valid {
		add("price <= $%d", f.MaxPrice.Decimal)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *pgProductRepo) List(ctx context.Context, filter model.ProductFilter, limit, offset int) ([]model.Product, int, error) {
	sort := filter.Sort
	if !productSorts[sort] {
		sort = "created_at"
	}
	order := filter.Order
	if order != "asc" && order != "desc" {
		order = "desc"
	}

	where, args := productWhere(filter)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		productColumns, where, sort, order, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

func (r *pgProductRepo) Update(ctx context.Context, product *model.Product) error {
	normalizeProduct(product)
	query := `UPDATE products SET name=$2, description=$3, price=$4, discount_price=$5, stock=$6, sku=$7,
			  category=$8, brand=$9, sizes=$10, colors=$11, images=$12, is_featured=$13, is_published=$14,
			  updated_at=NOW()
			  WHERE id=$1 RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.Price, product.DiscountPrice, product.Stock,
		product.SKU, product.Category, product.Brand, product.Sizes, product.Colors, product.Images,
		product.IsFeatured, product.IsPublished,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStock never lets stock go below zero; it returns
// ErrInsufficientStock instead.
func (r *pgProductRepo) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	ct, err := r.db.Exec(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1 AND stock >= $2`,
		productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}
