package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/flicky/rabbit-store-api/internal/dto"
	"github.com/flicky/rabbit-store-api/internal/model"
	"github.com/flicky/rabbit-store-api/internal/service"
)

// Catalog is the YAML document accepted by `storefrontctl seed`.
type Catalog struct {
	Categories []Category `yaml:"categories"`
	Products   []Product  `yaml:"products"`
	Coupons    []Coupon   `yaml:"coupons"`
}

type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Product struct {
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Price         string   `yaml:"price"`
	DiscountPrice string   `yaml:"discountPrice"`
	Stock         int      `yaml:"countInStock"`
	SKU           string   `yaml:"sku"`
	Category      string   `yaml:"category"`
	Brand         string   `yaml:"brand"`
	Sizes         []string `yaml:"sizes"`
	Colors        []string `yaml:"colors"`
	Images        []string `yaml:"images"`
	Featured      bool     `yaml:"featured"`
}

type Coupon struct {
	Code        string     `yaml:"code"`
	Type        string     `yaml:"type"`
	Value       string     `yaml:"value"`
	MinPurchase string     `yaml:"minPurchase"`
	ExpiresAt   *time.Time `yaml:"expiresAt"`
}

func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &c, nil
}

type CategoryCreator interface {
	Create(ctx context.Context, req dto.CategoryRequest) (*model.Category, error)
}

type ProductCreator interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
}

type CouponCreator interface {
	Create(ctx context.Context, req dto.CouponRequest) (*model.Coupon, error)
}

type Result struct {
	Created int
	Skipped int
}

// Seeder inserts a catalog through the services so slugs, defaults and
// uniqueness rules match what the API enforces. Existing rows are skipped.
type Seeder struct {
	Categories CategoryCreator
	Products   ProductCreator
	Coupons    CouponCreator
	Log        *slog.Logger
}

func (s *Seeder) Apply(ctx context.Context, c *Catalog) (Result, error) {
	var res Result

	for _, cat := range c.Categories {
		_, err := s.Categories.Create(ctx, dto.CategoryRequest{Name: cat.Name, Description: cat.Description})
		if err := s.tally(&res, err, service.ErrCategoryExists, "category", cat.Name); err != nil {
			return res, err
		}
	}

	for _, p := range c.Products {
		req, err := p.request()
		if err != nil {
			return res, err
		}
		_, err = s.Products.Create(ctx, req)
		if err := s.tally(&res, err, service.ErrDuplicateSKU, "product", p.SKU); err != nil {
			return res, err
		}
	}

	for _, cp := range c.Coupons {
		req, err := cp.request()
		if err != nil {
			return res, err
		}
		_, err = s.Coupons.Create(ctx, req)
		if err := s.tally(&res, err, service.ErrDuplicateCoupon, "coupon", cp.Code); err != nil {
			return res, err
		}
	}

	return res, nil
}

func (s *Seeder) tally(res *Result, err, duplicate error, kind, name string) error {
	switch {
	case err == nil:
		res.Created++
		s.Log.Info("seeded", "kind", kind, "name", name)
	case errors.Is(err, duplicate):
		res.Skipped++
		s.Log.Info("already present", "kind", kind, "name", name)
	default:
		return fmt.Errorf("seed %s %q: %w", kind, name, err)
	}
	return nil
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q: %w", field, raw, err)
	}
	return d, nil
}

func (p Product) request() (dto.CreateProductRequest, error) {
	price, err := parseAmount("price", p.Price)
	if err != nil {
		return dto.CreateProductRequest{}, fmt.Errorf("product %s: %w", p.SKU, err)
	}
	req := dto.CreateProductRequest{
		Name: p.Name, Description: p.Description, Price: price, Stock: p.Stock,
		SKU: p.SKU, Category: p.Category, Brand: p.Brand, Sizes: p.Sizes, Colors: p.Colors,
		IsFeatured: p.Featured,
	}
	if p.DiscountPrice != "" {
		d, err := parseAmount("discountPrice", p.DiscountPrice)
		if err != nil {
			return dto.CreateProductRequest{}, fmt.Errorf("product %s: %w", p.SKU, err)
		}
		req.DiscountPrice = &d
	}
	for _, url := range p.Images {
		req.Images = append(req.Images, model.ProductImage{URL: url, AltText: p.Name})
	}
	return req, nil
}

func (c Coupon) request() (dto.CouponRequest, error) {
	value, err := parseAmount("value", c.Value)
	if err != nil {
		return dto.CouponRequest{}, fmt.Errorf("coupon %s: %w", c.Code, err)
	}
	req := dto.CouponRequest{
		Code: c.Code, DiscountType: model.DiscountType(c.Type), DiscountValue: value, ExpiresAt: c.ExpiresAt,
	}
	switch req.DiscountType {
	case model.DiscountPercentage, model.DiscountFixed:
	default:
		return dto.CouponRequest{}, fmt.Errorf("coupon %s: unknown type %q", c.Code, c.Type)
	}
	if c.MinPurchase != "" {
		if req.MinPurchase, err = parseAmount("minPurchase", c.MinPurchase); err != nil {
			return dto.CouponRequest{}, fmt.Errorf("coupon %s: %w", c.Code, err)
		}
	}
	return req, nil
}
