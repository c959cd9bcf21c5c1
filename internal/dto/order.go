package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/rabbit-store-api/internal/model"
)

// --- Checkout ---

type CreateCheckoutRequest struct {
	CheckoutItems   []model.LineItem `json:"checkoutItems" binding:"required,min=1"`
	ShippingAddress model.Address    `json:"shippingAddress"`
	PaymentMethod   string           `json:"paymentMethod" binding:"required"`
	TotalPrice      decimal.Decimal  `json:"totalPrice"`
	CouponCode      string           `json:"couponCode"`
}

type PayCheckoutRequest struct {
	PaymentStatus  string          `json:"paymentStatus" binding:"required"`
	PaymentDetails json.RawMessage `json:"paymentDetails"`
}

type CheckoutResponse struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"user"`
	CheckoutItems   []model.LineItem `json:"checkoutItems"`
	ShippingAddress model.Address    `json:"shippingAddress"`
	PaymentMethod   string           `json:"paymentMethod"`
	TotalPrice      decimal.Decimal  `json:"totalPrice"`
	CouponCode      *string          `json:"couponCode"`
	DiscountAmount  decimal.Decimal  `json:"discountAmount"`
	PaymentStatus   string           `json:"paymentStatus"`
	PaymentDetails  json.RawMessage  `json:"paymentDetails,omitempty"`
	IsPaid          bool             `json:"isPaid"`
	PaidAt          *time.Time       `json:"paidAt,omitempty"`
	IsFinalized     bool             `json:"isFinalized"`
	FinalizedAt     *time.Time       `json:"finalizedAt,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

func NewCheckoutResponse(c *model.Checkout) CheckoutResponse {
	return CheckoutResponse{
		ID: c.ID, UserID: c.UserID, CheckoutItems: c.Items, ShippingAddress: c.ShippingAddress,
		PaymentMethod: c.PaymentMethod, TotalPrice: c.TotalPrice, CouponCode: c.CouponCode,
		DiscountAmount: c.DiscountAmount, PaymentStatus: c.PaymentStatus, PaymentDetails: c.PaymentDetails,
		IsPaid: c.IsPaid, PaidAt: c.PaidAt, IsFinalized: c.IsFinalized, FinalizedAt: c.FinalizedAt,
		CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

// --- Order ---

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required,orderstatus"`
}

type AdminUpdateOrderRequest struct {
	Status model.OrderStatus `json:"status" binding:"omitempty,orderstatus"`
}

type OrderUser struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name,omitempty"`
	Email string    `json:"email,omitempty"`
}

type OrderResponse struct {
	ID              uuid.UUID         `json:"id"`
	CheckoutID      *uuid.UUID        `json:"checkoutId,omitempty"`
	User            OrderUser         `json:"user"`
	OrderItems      []model.LineItem  `json:"orderItems"`
	ShippingAddress model.Address     `json:"shippingAddress"`
	PaymentMethod   string            `json:"paymentMethod"`
	TotalPrice      decimal.Decimal   `json:"totalPrice"`
	Coupon          *string           `json:"coupon"`
	DiscountAmount  decimal.Decimal   `json:"discountAmount"`
	IsPaid          bool              `json:"isPaid"`
	PaidAt          *time.Time        `json:"paidAt,omitempty"`
	IsDelivered     bool              `json:"isDelivered"`
	DeliveredAt     *time.Time        `json:"deliveredAt,omitempty"`
	PaymentStatus   string            `json:"paymentStatus"`
	PaymentDetails  json.RawMessage   `json:"paymentDetails,omitempty"`
	Status          model.OrderStatus `json:"status"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

func NewOrderResponse(o *model.Order) OrderResponse {
	return OrderResponse{
		ID: o.ID, CheckoutID: o.CheckoutID,
		User:       OrderUser{ID: o.UserID, Name: o.UserName, Email: o.UserEmail},
		OrderItems: o.Items, ShippingAddress: o.ShippingAddress, PaymentMethod: o.PaymentMethod,
		TotalPrice: o.TotalPrice, Coupon: o.CouponCode, DiscountAmount: o.DiscountAmount,
		IsPaid: o.IsPaid, PaidAt: o.PaidAt, IsDelivered: o.IsDelivered, DeliveredAt: o.DeliveredAt,
		PaymentStatus: o.PaymentStatus, PaymentDetails: o.PaymentDetails, Status: o.Status,
		CreatedAt: o.CreatedAt, UpdatedAt: o.UpdatedAt,
	}
}

func NewOrderResponses(orders []model.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderResponse(&orders[i]))
	}
	return out
}

type AdminOrderListResponse struct {
	Orders       []OrderResponse `json:"orders"`
	Page         int             `json:"page"`
	Pages        int             `json:"pages"`
	Total        int             `json:"total"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// --- Revenue ---

type RevenueSummaryResponse struct {
	TotalCustomers int             `json:"totalCustomers"`
	TotalOrders    int             `json:"totalOrders"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
}

type SalesBucketResponse struct {
	Year       int             `json:"year"`
	Month      int             `json:"month,omitempty"`
	Quarter    int             `json:"quarter,omitempty"`
	TotalSales decimal.Decimal `json:"totalSales"`
	Count      int             `json:"count"`
}

type OrderStatisticsResponse struct {
	Year         int             `json:"year"`
	Month        int             `json:"month,omitempty"`
	Quarter      int             `json:"quarter,omitempty"`
	TotalOrders  int             `json:"totalOrders"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// --- Coupon ---

type CouponRequest struct {
	Code          string             `json:"code" binding:"required"`
	DiscountType  model.DiscountType `json:"discountType" binding:"required,oneof=percentage fixed"`
	DiscountValue decimal.Decimal    `json:"discountValue" binding:"required"`
	ExpiresAt     *time.Time         `json:"expiresAt"`
	MinPurchase   decimal.Decimal    `json:"minPurchase"`
	Active        *bool              `json:"active"`
}

type UpdateCouponRequest struct {
	Code          *string             `json:"code"`
	DiscountType  *model.DiscountType `json:"discountType" binding:"omitempty,oneof=percentage fixed"`
	DiscountValue *decimal.Decimal    `json:"discountValue"`
	ExpiresAt     *time.Time          `json:"expiresAt"`
	MinPurchase   *decimal.Decimal    `json:"minPurchase"`
	Active        *bool               `json:"active"`
}

type CheckCouponRequest struct {
	CouponCode string          `json:"couponCode" binding:"required"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type CheckCouponResponse struct {
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	CouponID       uuid.UUID       `json:"couponId"`
}

type UseCouponRequest struct {
	CouponID uuid.UUID `json:"couponId" binding:"required"`
}

type CouponResponse struct {
	ID            uuid.UUID          `json:"id"`
	Code          string             `json:"code"`
	DiscountType  model.DiscountType `json:"discountType"`
	DiscountValue decimal.Decimal    `json:"discountValue"`
	ExpiresAt     *time.Time         `json:"expiresAt,omitempty"`
	MinPurchase   decimal.Decimal    `json:"minPurchase"`
	Active        bool               `json:"active"`
	UsedBy        []uuid.UUID        `json:"usedBy"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

func NewCouponResponse(c *model.Coupon) CouponResponse {
	usedBy := c.UsedBy
	if usedBy == nil {
		usedBy = []uuid.UUID{}
	}
	return CouponResponse{
		ID: c.ID, Code: c.Code, DiscountType: c.DiscountType, DiscountValue: c.DiscountValue,
		ExpiresAt: c.ExpiresAt, MinPurchase: c.MinPurchase, Active: c.Active, UsedBy: usedBy,
		CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func NewCouponResponses(coupons []model.Coupon) []CouponResponse {
	out := make([]CouponResponse, 0, len(coupons))
	for i := range coupons {
		out = append(out, NewCouponResponse(&coupons[i]))
	}
	return out
}
