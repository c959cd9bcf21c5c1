package seed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/rabbit-store-api/internal/dto"
	"github.com/flicky/rabbit-store-api/internal/model"
	"github.com/flicky/rabbit-store-api/internal/service"
)

const sampleCatalog = `
categories:
  - name: Top Wear
    description: Shirts and tees
  - name: Bottom Wear
products:
  - name: Classic Tee
    price: "20"
    discountPrice: "18.50"
    countInStock: 5
    sku: TEE-001
    category: Top Wear
    sizes: [S, M, L]
    colors: [Red]
    images: ["https://img/tee.jpg"]
coupons:
  - code: SAVE10
    type: percentage
    value: "10"
    minPurchase: "30"
    expiresAt: 2030-01-01T00:00:00Z
`

type recorder struct {
	categories []dto.CategoryRequest
	products   []dto.CreateProductRequest
	coupons    []dto.CouponRequest
	dupes      map[string]bool
}

func (r *recorder) categoryCreate(_ context.Context, req dto.CategoryRequest) (*model.Category, error) {
	if r.dupes[req.Name] {
		return nil, service.ErrCategoryExists
	}
	r.categories = append(r.categories, req)
	return &model.Category{Name: req.Name}, nil
}

type categoryFunc func(context.Context, dto.CategoryRequest) (*model.Category, error)

func (f categoryFunc) Create(ctx context.Context, req dto.CategoryRequest) (*model.Category, error) {
	return f(ctx, req)
}

type productFunc func(context.Context, dto.CreateProductRequest) (*dto.ProductResponse, error)

func (f productFunc) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	return f(ctx, req)
}

type couponFunc func(context.Context, dto.CouponRequest) (*model.Coupon, error)

func (f couponFunc) Create(ctx context.Context, req dto.CouponRequest) (*model.Coupon, error) {
	return f(ctx, req)
}

func newSeeder(r *recorder) *Seeder {
	return &Seeder{
		Categories: categoryFunc(r.categoryCreate),
		Products: productFunc(func(_ context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
			r.products = append(r.products, req)
			return &dto.ProductResponse{}, nil
		}),
		Coupons: couponFunc(func(_ context.Context, req dto.CouponRequest) (*model.Coupon, error) {
			r.coupons = append(r.coupons, req)
			return &model.Coupon{}, nil
		}),
		Log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestLoadFileAndApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))

	catalog, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, catalog.Categories, 2)

	r := &recorder{dupes: map[string]bool{"Bottom Wear": true}}
	res, err := newSeeder(r).Apply(context.Background(), catalog)
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 3, Skipped: 1}, res)

	require.Len(t, r.products, 1)
	p := r.products[0]
	assert.True(t, decimal.NewFromInt(20).Equal(p.Price))
	require.NotNil(t, p.DiscountPrice)
	assert.Equal(t, "18.5", p.DiscountPrice.String())
	assert.Equal(t, []model.ProductImage{{URL: "https://img/tee.jpg", AltText: "Classic Tee"}}, p.Images)
	assert.Equal(t, 5, p.Stock)

	require.Len(t, r.coupons, 1)
	c := r.coupons[0]
	assert.Equal(t, model.DiscountPercentage, c.DiscountType)
	assert.True(t, decimal.NewFromInt(30).Equal(c.MinPurchase))
	require.NotNil(t, c.ExpiresAt)
	assert.Equal(t, 2030, c.ExpiresAt.Year())
}

func TestApply_Errors(t *testing.T) {
	r := &recorder{}

	_, err := newSeeder(r).Apply(context.Background(), &Catalog{Products: []Product{{SKU: "X", Price: "abc"}}})
	assert.ErrorContains(t, err, "product X")

	_, err = newSeeder(r).Apply(context.Background(), &Catalog{Coupons: []Coupon{{Code: "C", Type: "bogus", Value: "1"}}})
	assert.ErrorContains(t, err, "unknown type")

	s := newSeeder(r)
	s.Categories = categoryFunc(func(context.Context, dto.CategoryRequest) (*model.Category, error) {
		return nil, errors.New("db down")
	})
	_, err = s.Apply(context.Background(), &Catalog{Categories: []Category{{Name: "A"}}})
	assert.ErrorContains(t, err, "db down")
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("categories: [oops"))
	assert.Error(t, err)
}
