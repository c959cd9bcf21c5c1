package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Coupon struct {
	ID            uuid.UUID
	Code          string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	ExpiresAt     *time.Time
	MinPurchase   decimal.Decimal
	Active        bool
	UsedBy        []uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (c *Coupon) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

func (c *Coupon) UsedByUser(userID uuid.UUID) bool {
	for _, id := range c.UsedBy {
		if id == userID {
			return true
		}
	}
	return false
}
