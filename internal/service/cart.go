package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/rabbit-store-api/internal/dto"
	"github.com/flicky/rabbit-store-api/internal/model"
	"github.com/flicky/rabbit-store-api/internal/repository"
)

var (
	ErrCartNotFound      = errors.New("cart not found")
	ErrCartItemNotFound  = errors.New("product not found in cart")
	ErrGuestCartNotFound = errors.New("guest cart not found")
	ErrGuestCartEmpty    = errors.New("guest cart is empty")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// CartOwner identifies a cart by the authenticated user or, failing that, a guest id.
type CartOwner struct {
	UserID  *uuid.UUID
	GuestID string
}

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	txRunner    repository.TxRunner
	now         func() time.Time
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, txRunner repository.TxRunner) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo, txRunner: txRunner, now: time.Now}
}

func (s *CartService) find(ctx context.Context, owner CartOwner) (*model.Cart, error) {
	var (
		cart *model.Cart
		err  error
	)
	switch {
	case owner.UserID != nil:
		cart, err = s.cartRepo.GetByUserID(ctx, *owner.UserID)
	case owner.GuestID != "":
		cart, err = s.cartRepo.GetByGuestID(ctx, owner.GuestID)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) Get(ctx context.Context, owner CartOwner) (*model.Cart, error) {
	cart, err := s.find(ctx, owner)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

// AddItem adds quantity of a product variant to the owner's cart, creating
// the cart when none exists. created reports whether a new cart was made.
func (s *CartService) AddItem(ctx context.Context, owner CartOwner, req dto.CartItemRequest) (cart *model.Cart, created bool, err error) {
	if req.Quantity < 1 {
		return nil, false, ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, false, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, false, ErrProductNotFound
	}

	cart, err = s.find(ctx, owner)
	if err != nil {
		return nil, false, err
	}

	if cart != nil {
		if i := cart.FindItem(req.ProductID, req.Size, req.Color); i > -1 {
			cart.Items[i].Quantity += req.Quantity
		} else {
			cart.Items = append(cart.Items, lineFor(product, req))
		}
		cart.Recalculate()
		if err := s.cartRepo.Save(ctx, cart); err != nil {
			return nil, false, fmt.Errorf("save cart: %w", err)
		}
		return cart, false, nil
	}

	cart = &model.Cart{Items: []model.LineItem{lineFor(product, req)}}
	if owner.UserID != nil {
		cart.UserID = owner.UserID
	} else {
		guestID := owner.GuestID
		if guestID == "" {
			guestID = "guest_" + strconv.FormatInt(s.now().UnixMilli(), 10)
		}
		cart.GuestID = &guestID
	}
	cart.Recalculate()
	if err := s.cartRepo.Create(ctx, cart); err != nil {
		return nil, false, fmt.Errorf("create cart: %w", err)
	}
	return cart, true, nil
}

func lineFor(p *model.Product, req dto.CartItemRequest) model.LineItem {
	return model.LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		Image:     p.MainImage(),
		Price:     p.Price,
		Size:      req.Size,
		Color:     req.Color,
		Quantity:  req.Quantity,
	}
}

// UpdateItem sets the quantity of a line. Zero removes it.
func (s *CartService) UpdateItem(ctx context.Context, owner CartOwner, req dto.CartItemRequest) (*model.Cart, error) {
	if req.Quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	cart, err := s.Get(ctx, owner)
	if err != nil {
		return nil, err
	}

	i := cart.FindItem(req.ProductID, req.Size, req.Color)
	if i < 0 {
		return nil, ErrCartItemNotFound
	}
	if req.Quantity == 0 {
		cart.RemoveItem(i)
	} else {
		cart.Items[i].Quantity = req.Quantity
	}
	cart.Recalculate()

	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) RemoveItem(ctx context.Context, owner CartOwner, req dto.CartItemRequest) (*model.Cart, error) {
	cart, err := s.Get(ctx, owner)
	if err != nil {
		return nil, err
	}

	i := cart.FindItem(req.ProductID, req.Size, req.Color)
	if i < 0 {
		return nil, ErrCartItemNotFound
	}
	cart.RemoveItem(i)
	cart.Recalculate()

	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) DeleteEntire(ctx context.Context, owner CartOwner) (uuid.UUID, error) {
	cart, err := s.Get(ctx, owner)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.cartRepo.Delete(ctx, cart.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, ErrCartNotFound
		}
		return uuid.Nil, fmt.Errorf("delete cart: %w", err)
	}
	return cart.ID, nil
}

// Merge folds the guest cart into the user's cart inside one transaction.
// Afterwards only the user cart remains.
func (s *CartService) Merge(ctx context.Context, userID uuid.UUID, guestID string) (*model.Cart, error) {
	var merged *model.Cart
	err := s.txRunner.InTx(ctx, func(tx repository.Tx) error {
		guestCart, err := tx.Carts.GetByGuestID(ctx, guestID)
		if err != nil {
			return fmt.Errorf("get guest cart: %w", err)
		}
		userCart, err := tx.Carts.GetByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("get user cart: %w", err)
		}

		if guestCart == nil {
			if userCart == nil {
				return ErrGuestCartNotFound
			}
			merged = userCart
			return nil
		}
		if len(guestCart.Items) == 0 {
			return ErrGuestCartEmpty
		}

		if userCart == nil {
			guestCart.AssignTo(userID)
			guestCart.Recalculate()
			if err := tx.Carts.Save(ctx, guestCart); err != nil {
				return fmt.Errorf("assign guest cart: %w", err)
			}
			merged = guestCart
			return nil
		}

		userCart.Absorb(guestCart.Items)
		if err := tx.Carts.Save(ctx, userCart); err != nil {
			return fmt.Errorf("save user cart: %w", err)
		}
		if err := tx.Carts.Delete(ctx, guestCart.ID); err != nil {
			return fmt.Errorf("delete guest cart: %w", err)
		}
		merged = userCart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}
