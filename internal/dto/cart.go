package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/rabbit-store-api/internal/model"
)

type CartItemRequest struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
	Quantity  int       `json:"quantity" binding:"min=0"`
	GuestID   string    `json:"guestId"`
}

type CartOwnerRequest struct {
	GuestID string `json:"guestId" form:"guestId"`
}

type MergeCartRequest struct {
	GuestID string `json:"guestId" binding:"required"`
}

type CartResponse struct {
	ID         uuid.UUID        `json:"id"`
	UserID     *uuid.UUID       `json:"user,omitempty"`
	GuestID    *string          `json:"guestId,omitempty"`
	Products   []model.LineItem `json:"products"`
	TotalPrice decimal.Decimal  `json:"totalPrice"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

func NewCartResponse(c *model.Cart) CartResponse {
	items := c.Items
	if items == nil {
		items = []model.LineItem{}
	}
	return CartResponse{
		ID: c.ID, UserID: c.UserID, GuestID: c.GuestID, Products: items,
		TotalPrice: c.TotalPrice, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

type DeleteCartResponse struct {
	Message       string    `json:"message"`
	DeletedCartID uuid.UUID `json:"deletedCartId"`
}
