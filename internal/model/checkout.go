package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentMethodCOD = "cod"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

type Checkout struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Items           []LineItem
	ShippingAddress Address
	PaymentMethod   string
	TotalPrice      decimal.Decimal
	CouponCode      *string
	DiscountAmount  decimal.Decimal
	PaymentStatus   string
	PaymentDetails  json.RawMessage
	IsPaid          bool
	PaidAt          *time.Time
	IsFinalized     bool
	FinalizedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Payable reports whether the checkout may be turned into an order.
func (c *Checkout) Payable() bool {
	return (c.IsPaid || c.PaymentMethod == PaymentMethodCOD) && !c.IsFinalized
}

// NewOrder copies the checkout into an order in the Processing state.
func (c *Checkout) NewOrder() *Order {
	checkoutID := c.ID
	return &Order{
		CheckoutID:      &checkoutID,
		UserID:          c.UserID,
		Items:           c.Items,
		ShippingAddress: c.ShippingAddress,
		PaymentMethod:   c.PaymentMethod,
		TotalPrice:      c.TotalPrice,
		CouponCode:      c.CouponCode,
		DiscountAmount:  c.DiscountAmount,
		IsPaid:          c.IsPaid,
		PaidAt:          c.PaidAt,
		PaymentStatus:   c.PaymentStatus,
		PaymentDetails:  c.PaymentDetails,
		Status:          OrderStatusProcessing,
	}
}

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCanceled   OrderStatus = "Canceled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCanceled:
		return true
	}
	return false
}

type Order struct {
	ID              uuid.UUID
	CheckoutID      *uuid.UUID
	UserID          uuid.UUID
	Items           []LineItem
	ShippingAddress Address
	PaymentMethod   string
	TotalPrice      decimal.Decimal
	CouponCode      *string
	DiscountAmount  decimal.Decimal
	IsPaid          bool
	PaidAt          *time.Time
	IsDelivered     bool
	DeliveredAt     *time.Time
	PaymentStatus   string
	PaymentDetails  json.RawMessage
	Status          OrderStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Populated by admin listings.
	UserName  string
	UserEmail string
}

type RevenueSummary struct {
	TotalCustomers int
	TotalOrders    int
	TotalRevenue   decimal.Decimal
}

// SalesBucket aggregates paid orders for one period. Period is the month,
// quarter or zero for yearly buckets.
type SalesBucket struct {
	Year       int
	Period     int
	TotalSales decimal.Decimal
	Count      int
}
