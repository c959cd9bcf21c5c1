package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/rabbit-store-api/internal/dto"
	"github.com/flicky/rabbit-store-api/internal/model"
	"github.com/flicky/rabbit-store-api/internal/repository"
)

var (
	ErrCheckoutNotFound     = errors.New("checkout not found")
	ErrCheckoutNotPayable   = errors.New("checkout not paid or already finalized")
	ErrCheckoutAlreadyPaid  = errors.New("checkout already paid")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	ErrEmptyCheckout        = errors.New("no items to checkout")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrForbidden            = errors.New("access denied")
)

// Actor is the authenticated caller of an owner-or-admin operation.
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

func (a Actor) CanAccess(ownerID uuid.UUID) bool {
	return a.IsAdmin || a.UserID == ownerID
}

// OrderPublisher announces placed orders to asynchronous consumers.
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, msg model.OrderMessage) error
}

type productCache interface {
	Invalidate(ctx context.Context, ids ...uuid.UUID)
}

type CheckoutService struct {
	checkoutRepo repository.CheckoutRepository
	couponRepo   repository.CouponRepository
	txRunner     repository.TxRunner
	cache        productCache
	publisher    OrderPublisher
	log          *slog.Logger
	now          func() time.Time
}

func NewCheckoutService(
	checkoutRepo repository.CheckoutRepository,
	couponRepo repository.CouponRepository,
	txRunner repository.TxRunner,
	cache productCache,
	publisher OrderPublisher,
	log *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		checkoutRepo: checkoutRepo,
		couponRepo:   couponRepo,
		txRunner:     txRunner,
		cache:        cache,
		publisher:    publisher,
		log:          log,
		now:          time.Now,
	}
}

func (s *CheckoutService) Create(ctx context.Context, userID uuid.UUID, req dto.CreateCheckoutRequest) (*model.Checkout, error) {
	if len(req.CheckoutItems) == 0 {
		return nil, ErrEmptyCheckout
	}
	for _, item := range req.CheckoutItems {
		if item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}
	if field := req.ShippingAddress.MissingField(); field != "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAddressField, field)
	}

	total := req.TotalPrice
	if total.IsZero() {
		total = model.SumItems(req.CheckoutItems)
	}

	checkout := &model.Checkout{
		UserID:          userID,
		Items:           req.CheckoutItems,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		TotalPrice:      total,
		DiscountAmount:  decimal.Zero,
		PaymentStatus:   model.PaymentStatusPending,
	}

	if req.CouponCode != "" {
		coupon, err := s.couponRepo.GetByCode(ctx, req.CouponCode)
		if err != nil {
			return nil, fmt.Errorf("get coupon: %w", err)
		}
		discount, err := EvaluateCoupon(coupon, total, &userID, s.now())
		if err != nil {
			return nil, err
		}
		code := coupon.Code
		checkout.CouponCode = &code
		checkout.DiscountAmount = discount
		checkout.TotalPrice = decimal.Max(decimal.Zero, total.Sub(discount))
	}

	if err := s.checkoutRepo.Create(ctx, checkout); err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}
	return checkout, nil
}

func (s *CheckoutService) Pay(ctx context.Context, actor Actor, id uuid.UUID, req dto.PayCheckoutRequest) (*model.Checkout, error) {
	if req.PaymentStatus != model.PaymentStatusPaid {
		return nil, ErrInvalidPaymentStatus
	}

	checkout, err := s.checkoutRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get checkout: %w", err)
	}
	if checkout == nil {
		return nil, ErrCheckoutNotFound
	}
	if !actor.CanAccess(checkout.UserID) {
		return nil, ErrForbidden
	}
	if checkout.IsPaid {
		return nil, ErrCheckoutAlreadyPaid
	}

	paid, err := s.checkoutRepo.MarkPaid(ctx, id, req.PaymentDetails, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			return nil, ErrCheckoutAlreadyPaid
		}
		return nil, fmt.Errorf("mark checkout paid: %w", err)
	}
	return paid, nil
}

// Finalize turns a payable checkout into an order. Stock, the order row, the
// checkout flag, coupon usage and the buyer's cart change in one transaction;
// cache invalidation and the order-placed event follow the commit.
func (s *CheckoutService) Finalize(ctx context.Context, actor Actor, id uuid.UUID) (*model.Order, error) {
	var order *model.Order
	err := s.txRunner.InTx(ctx, func(tx repository.Tx) error {
		checkout, err := tx.Checkouts.GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get checkout: %w", err)
		}
		if checkout == nil {
			return ErrCheckoutNotFound
		}
		if !actor.CanAccess(checkout.UserID) {
			return ErrForbidden
		}
		if !checkout.Payable() {
			return ErrCheckoutNotPayable
		}

		// Every product is locked and checked before any stock moves.
		needs := stockNeeds(checkout.Items)
		for _, need := range needs {
			product, err := tx.Products.GetByIDForUpdate(ctx, need.productID)
			if err != nil {
				return fmt.Errorf("get product: %w", err)
			}
			if product == nil {
				return fmt.Errorf("%w: %s", ErrProductNotFound, need.name)
			}
			if product.Stock < need.quantity {
				return fmt.Errorf("%w for product %s", ErrInsufficientStock, product.Name)
			}
		}
		for _, need := range needs {
			if err := tx.Products.DecrementStock(ctx, need.productID, need.quantity); err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					return fmt.Errorf("%w for product %s", ErrInsufficientStock, need.name)
				}
				return fmt.Errorf("decrement stock: %w", err)
			}
		}

		order = checkout.NewOrder()
		if err := tx.Orders.Create(ctx, order); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrCheckoutNotPayable
			}
			return fmt.Errorf("create order: %w", err)
		}
		if err := tx.Checkouts.MarkFinalized(ctx, checkout.ID, s.now()); err != nil {
			if errors.Is(err, repository.ErrConditionFailed) {
				return ErrCheckoutNotPayable
			}
			return fmt.Errorf("finalize checkout: %w", err)
		}

		if checkout.CouponCode != nil {
			coupon, err := tx.Coupons.GetByCode(ctx, *checkout.CouponCode)
			if err != nil {
				return fmt.Errorf("get coupon: %w", err)
			}
			if coupon != nil {
				if err := tx.Coupons.MarkUsed(ctx, coupon.ID, checkout.UserID); err != nil {
					return fmt.Errorf("mark coupon used: %w", err)
				}
			}
		}

		if err := tx.Carts.DeleteByUserID(ctx, checkout.UserID); err != nil {
			return fmt.Errorf("delete cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, ids...)
	}

	if s.publisher != nil {
		msg := model.OrderMessage{OrderID: order.ID, UserID: order.UserID}
		if err := s.publisher.PublishOrderPlaced(ctx, msg); err != nil {
			s.log.Error("publish order placed", "order_id", order.ID, "error", err)
		}
	}
	return order, nil
}

type stockNeed struct {
	productID uuid.UUID
	name      string
	quantity  int
}

// stockNeeds sums quantities per product, ordered by product id. Locking rows
// in that order keeps two finalizes over the same products from deadlocking.
func stockNeeds(items []model.LineItem) []stockNeed {
	index := make(map[uuid.UUID]int, len(items))
	var needs []stockNeed
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			needs[i].quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(needs)
		needs = append(needs, stockNeed{productID: item.ProductID, name: item.Name, quantity: item.Quantity})
	}
	sort.Slice(needs, func(i, j int) bool {
		return bytes.Compare(needs[i].productID[:], needs[j].productID[:]) < 0
	})
	return needs
}
