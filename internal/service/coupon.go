package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/rabbit-store-api/internal/dto"
	"github.com/flicky/rabbit-store-api/internal/model"
	"github.com/flicky/rabbit-store-api/internal/repository"
)

var (
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrDuplicateCoupon   = errors.New("coupon code already exists")
	ErrCouponInvalid     = errors.New("invalid coupon code")
	ErrCouponExpired     = errors.New("coupon has expired")
	ErrCouponMinPurchase = errors.New("minimum purchase for coupon not met")
	ErrCouponAlreadyUsed = errors.New("you have already used this coupon")
	ErrInvalidDiscount   = errors.New("invalid discount")
)

var hundred = decimal.NewFromInt(100)

// EvaluateCoupon returns the discount coupon grants on total, or the reason it
// cannot be applied. A nil userID skips the one-use-per-user check. The
// discount is rounded to cents and never exceeds total.
func EvaluateCoupon(coupon *model.Coupon, total decimal.Decimal, userID *uuid.UUID, now time.Time) (decimal.Decimal, error) {
	if coupon == nil || !coupon.Active {
		return decimal.Zero, ErrCouponInvalid
	}
	if coupon.Expired(now) {
		return decimal.Zero, ErrCouponExpired
	}
	if total.LessThan(coupon.MinPurchase) {
		return decimal.Zero, fmt.Errorf("%w: minimum is %s", ErrCouponMinPurchase, coupon.MinPurchase.StringFixed(2))
	}
	if userID != nil && coupon.UsedByUser(*userID) {
		return decimal.Zero, ErrCouponAlreadyUsed
	}

	var discount decimal.Decimal
	switch coupon.DiscountType {
	case model.DiscountPercentage:
		discount = coupon.DiscountValue.Div(hundred).Mul(total)
	case model.DiscountFixed:
		discount = coupon.DiscountValue
	}
	discount = discount.Round(2)

	if discount.GreaterThan(total) {
		discount = total
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount, nil
}

func validateCoupon(c *model.Coupon) error {
	switch c.DiscountType {
	case model.DiscountPercentage:
		if c.DiscountValue.GreaterThan(hundred) {
			return fmt.Errorf("%w: percentage cannot exceed 100", ErrInvalidDiscount)
		}
	case model.DiscountFixed:
	default:
		return fmt.Errorf("%w: unknown discount type %q", ErrInvalidDiscount, c.DiscountType)
	}
	if c.DiscountValue.IsNegative() {
		return fmt.Errorf("%w: discountValue must not be negative", ErrInvalidDiscount)
	}
	if c.MinPurchase.IsNegative() {
		return fmt.Errorf("%w: minPurchase must not be negative", ErrInvalidDiscount)
	}
	return nil
}

type CouponService struct {
	couponRepo repository.CouponRepository
	now        func() time.Time
}

func NewCouponService(couponRepo repository.CouponRepository) *CouponService {
	return &CouponService{couponRepo: couponRepo, now: time.Now}
}

func (s *CouponService) List(ctx context.Context) ([]model.Coupon, error) {
	coupons, err := s.couponRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	return coupons, nil
}

func (s *CouponService) Create(ctx context.Context, req dto.CouponRequest) (*model.Coupon, error) {
	coupon := &model.Coupon{
		Code:          req.Code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		ExpiresAt:     req.ExpiresAt,
		MinPurchase:   req.MinPurchase,
		Active:        true,
	}
	if req.Active != nil {
		coupon.Active = *req.Active
	}
	if err := validateCoupon(coupon); err != nil {
		return nil, err
	}
	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateCoupon
		}
		return nil, fmt.Errorf("create coupon: %w", err)
	}
	return coupon, nil
}

func (s *CouponService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateCouponRequest) (*model.Coupon, error) {
	coupon, err := s.couponRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	if req.Code != nil && *req.Code != "" {
		coupon.Code = *req.Code
	}
	if req.DiscountType != nil {
		coupon.DiscountType = *req.DiscountType
	}
	if req.DiscountValue != nil {
		coupon.DiscountValue = *req.DiscountValue
	}
	if req.ExpiresAt != nil {
		coupon.ExpiresAt = req.ExpiresAt
	}
	if req.MinPurchase != nil {
		coupon.MinPurchase = *req.MinPurchase
	}
	if req.Active != nil {
		coupon.Active = *req.Active
	}
	if err := validateCoupon(coupon); err != nil {
		return nil, err
	}

	if err := s.couponRepo.Update(ctx, coupon); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrCouponNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrDuplicateCoupon
		}
		return nil, fmt.Errorf("update coupon: %w", err)
	}
	return coupon, nil
}

func (s *CouponService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.couponRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCouponNotFound
		}
		return fmt.Errorf("delete coupon: %w", err)
	}
	return nil
}

// Check evaluates a code against a total without reserving the coupon.
func (s *CouponService) Check(ctx context.Context, req dto.CheckCouponRequest, userID *uuid.UUID) (*dto.CheckCouponResponse, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, req.CouponCode)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	discount, err := EvaluateCoupon(coupon, req.TotalPrice, userID, s.now())
	if err != nil {
		return nil, err
	}
	return &dto.CheckCouponResponse{DiscountAmount: discount, CouponID: coupon.ID}, nil
}

// Use records that userID redeemed the coupon. Repeated calls are no-ops.
func (s *CouponService) Use(ctx context.Context, couponID, userID uuid.UUID) error {
	if err := s.couponRepo.MarkUsed(ctx, couponID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCouponNotFound
		}
		return fmt.Errorf("mark coupon used: %w", err)
	}
	return nil
}
