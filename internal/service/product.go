package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/flicky/rabbit-store-api/internal/dto"
	"github.com/flicky/rabbit-store-api/internal/model"
	"github.com/flicky/rabbit-store-api/internal/repository"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateSKU    = errors.New("product with this SKU already exists")
	ErrInvalidPrice    = errors.New("invalid price filter")
	ErrNegativePrice   = errors.New("price must not be negative")
	ErrNegativeStock   = errors.New("countInStock must not be negative")
)

func validateProduct(p *model.Product) error {
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	if p.DiscountPrice.Valid && p.DiscountPrice.Decimal.IsNegative() {
		return fmt.Errorf("%w: discountPrice", ErrNegativePrice)
	}
	if p.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

type ProductService struct {
	productRepo repository.ProductRepository
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewProductService(productRepo repository.ProductRepository, redisClient *redis.Client, cacheTTL time.Duration) *ProductService {
	return &ProductService{productRepo: productRepo, redisClient: redisClient, cacheTTL: cacheTTL}
}

func productCacheKey(id uuid.UUID) string { return "product:" + id.String() }

func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	product := &model.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		SKU:         req.SKU,
		Category:    req.Category,
		Brand:       req.Brand,
		Sizes:       req.Sizes,
		Colors:      req.Colors,
		Images:      req.Images,
		IsFeatured:  req.IsFeatured,
		IsPublished: true,
	}
	if req.DiscountPrice != nil {
		product.DiscountPrice = decimal.NewNullDecimal(*req.DiscountPrice)
	}
	if req.IsPublished != nil {
		product.IsPublished = *req.IsPublished
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateSKU
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	resp := dto.NewProductResponse(product)
	return &resp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	cacheKey := productCacheKey(id)

	// Try cache
	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var resp dto.ProductResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	resp := dto.NewProductResponse(product)

	// Write to cache
	if s.redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}

	return &resp, nil
}

func parsePrice(raw string) (decimal.NullDecimal, error) {
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return decimal.NullDecimal{}, ErrInvalidPrice
	}
	return decimal.NewNullDecimal(d), nil
}

func (s *ProductService) List(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	minPrice, err := parsePrice(req.MinPrice)
	if err != nil {
		return nil, err
	}
	maxPrice, err := parsePrice(req.MaxPrice)
	if err != nil {
		return nil, err
	}

	filter := model.ProductFilter{
		Search: req.Search, Category: req.Category,
		MinPrice: minPrice, MaxPrice: maxPrice,
		Sort: req.Sort, Order: req.Order,
	}
	products, total, err := s.productRepo.List(ctx, filter, req.Limit, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return &dto.ProductListResponse{
		Products: dto.NewProductResponses(products), Page: req.Page, Pages: dto.Pages(total, req.Limit), Total: total,
	}, nil
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.DiscountPrice != nil {
		product.DiscountPrice = decimal.NewNullDecimal(*req.DiscountPrice)
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.SKU != nil {
		product.SKU = *req.SKU
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Brand != nil {
		product.Brand = *req.Brand
	}
	if req.Sizes != nil {
		product.Sizes = *req.Sizes
	}
	if req.Colors != nil {
		product.Colors = *req.Colors
	}
	if req.Images != nil {
		product.Images = *req.Images
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}
	if req.IsPublished != nil {
		product.IsPublished = *req.IsPublished
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProductNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrDuplicateSKU
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.Invalidate(ctx, id)
	resp := dto.NewProductResponse(product)
	return &resp, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.Invalidate(ctx, id)
	return nil
}

// Invalidate drops cached entries for the given products.
func (s *ProductService) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	if s.redisClient == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productCacheKey(id))
	}
	s.redisClient.Del(ctx, keys...)
}
