package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/rabbit-store-api/internal/model"
)

type CreateProductRequest struct {
	Name          string               `json:"name" binding:"required"`
	Description   string               `json:"description"`
	Price         decimal.Decimal      `json:"price" binding:"required"`
	DiscountPrice *decimal.Decimal     `json:"discountPrice"`
	Stock         int                  `json:"countInStock" binding:"min=0"`
	SKU           string               `json:"sku" binding:"required"`
	Category      string               `json:"category"`
	Brand         string               `json:"brand"`
	Sizes         []string             `json:"sizes"`
	Colors        []string             `json:"colors"`
	Images        []model.ProductImage `json:"images"`
	IsFeatured    bool                 `json:"isFeatured"`
	IsPublished   *bool                `json:"isPublished"`
}

type UpdateProductRequest struct {
	Name          *string               `json:"name"`
	Description   *string               `json:"description"`
	Price         *decimal.Decimal      `json:"price"`
	DiscountPrice *decimal.Decimal      `json:"discountPrice"`
	Stock         *int                  `json:"countInStock" binding:"omitempty,min=0"`
	SKU           *string               `json:"sku"`
	Category      *string               `json:"category"`
	Brand         *string               `json:"brand"`
	Sizes         *[]string             `json:"sizes"`
	Colors        *[]string             `json:"colors"`
	Images        *[]model.ProductImage `json:"images"`
	IsFeatured    *bool                 `json:"isFeatured"`
	IsPublished   *bool                 `json:"isPublished"`
}

type ListProductsRequest struct {
	PageQuery
	Search   string `form:"search"`
	Category string `form:"category"`
	MinPrice string `form:"minPrice"`
	MaxPrice string `form:"maxPrice"`
	Sort     string `form:"sort,default=created_at" binding:"oneof=name price created_at"`
	Order    string `form:"order,default=desc" binding:"oneof=asc desc"`
}

type ProductResponse struct {
	ID            uuid.UUID            `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	Price         decimal.Decimal      `json:"price"`
	DiscountPrice *decimal.Decimal     `json:"discountPrice,omitempty"`
	Stock         int                  `json:"countInStock"`
	SKU           string               `json:"sku"`
	Category      string               `json:"category"`
	Brand         string               `json:"brand"`
	Sizes         []string             `json:"sizes"`
	Colors        []string             `json:"colors"`
	Images        []model.ProductImage `json:"images"`
	IsFeatured    bool                 `json:"isFeatured"`
	IsPublished   bool                 `json:"isPublished"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Page     int               `json:"page"`
	Pages    int               `json:"pages"`
	Total    int               `json:"total"`
}

func NewProductResponse(p *model.Product) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		SKU:         p.SKU,
		Category:    p.Category,
		Brand:       p.Brand,
		Sizes:       p.Sizes,
		Colors:      p.Colors,
		Images:      p.Images,
		IsFeatured:  p.IsFeatured,
		IsPublished: p.IsPublished,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.DiscountPrice.Valid {
		d := p.DiscountPrice.Decimal
		resp.DiscountPrice = &d
	}
	return resp
}

func NewProductResponses(products []model.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, NewProductResponse(&products[i]))
	}
	return out
}
