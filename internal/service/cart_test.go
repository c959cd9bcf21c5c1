package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/rabbit-store-api/internal/dto"
	"github.com/flicky/rabbit-store-api/internal/model"
)

func newCartFixture() (*CartService, *memStore) {
	store := newMemStore()
	svc := NewCartService(&memCarts{store}, &memProducts{store}, &memTxRunner{store})
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc, store
}

func requireTotalMatchesLines(t *testing.T, cart *model.Cart) {
	t.Helper()
	assert.True(t, model.SumItems(cart.Items).Equal(cart.TotalPrice),
		"total %s != sum of lines %s", cart.TotalPrice, model.SumItems(cart.Items))
}

func TestCartService_AddItem_CreatesGuestCart(t *testing.T) {
	svc, store := newCartFixture()
	p := store.addProduct("shirt", 20, 10)

	cart, created, err := svc.AddItem(context.Background(), CartOwner{}, dto.CartItemRequest{
		ProductID: p.ID, Size: "M", Color: "Red", Quantity: 2,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Nil(t, cart.UserID)
	require.NotNil(t, cart.GuestID)
	assert.Equal(t, "guest_1700000000000", *cart.GuestID)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "https://img/shirt.jpg", cart.Items[0].Image)
	assert.True(t, decimal.NewFromInt(40).Equal(cart.TotalPrice))
}

func TestCartService_AddItem_IncrementsExistingLine(t *testing.T) {
	svc, store := newCartFixture()
	p := store.addProduct("shirt", 20, 10)
	userID := uuid.New()
	owner := CartOwner{UserID: &userID}
	req := dto.CartItemRequest{ProductID: p.ID, Size: "M", Color: "Red", Quantity: 1}

	_, created, err := svc.AddItem(context.Background(), owner, req)
	require.NoError(t, err)
	assert.True(t, created)

	cart, created, err := svc.AddItem(context.Background(), owner, req)
	require.NoError(t, err)
	assert.False(t, created)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Nil(t, cart.GuestID)
	requireTotalMatchesLines(t, cart)
}

func TestCartService_AddItem_Rejects(t *testing.T) {
	svc, store := newCartFixture()
	p := store.addProduct("shirt", 20, 10)

	_, _, err := svc.AddItem(context.Background(), CartOwner{GuestID: "g"}, dto.CartItemRequest{ProductID: p.ID, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, _, err = svc.AddItem(context.Background(), CartOwner{GuestID: "g"}, dto.CartItemRequest{ProductID: uuid.New(), Quantity: 1})
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Empty(t, store.carts)
}

func TestCartService_TotalTracksEveryMutation(t *testing.T) {
	svc, store := newCartFixture()
	shirt := store.addProduct("shirt", 20, 10)
	jeans := store.addProduct("jeans", 35, 10)
	owner := CartOwner{GuestID: "guest_1"}
	ctx := context.Background()

	cart, _, err := svc.AddItem(ctx, owner, dto.CartItemRequest{ProductID: shirt.ID, Size: "M", Quantity: 2})
	require.NoError(t, err)
	requireTotalMatchesLines(t, cart)

	cart, _, err = svc.AddItem(ctx, owner, dto.CartItemRequest{ProductID: jeans.ID, Size: "32", Quantity: 1})
	require.NoError(t, err)
	requireTotalMatchesLines(t, cart)
	assert.True(t, decimal.NewFromInt(75).Equal(cart.TotalPrice))

	cart, err = svc.UpdateItem(ctx, owner, dto.CartItemRequest{ProductID: shirt.ID, Size: "M", Quantity: 5})
	require.NoError(t, err)
	requireTotalMatchesLines(t, cart)

	cart, err = svc.UpdateItem(ctx, owner, dto.CartItemRequest{ProductID: jeans.ID, Size: "32", Quantity: 0})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	requireTotalMatchesLines(t, cart)

	cart, err = svc.RemoveItem(ctx, owner, dto.CartItemRequest{ProductID: shirt.ID, Size: "M"})
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalPrice.IsZero())

	stored, err := svc.Get(ctx, owner)
	require.NoError(t, err)
	requireTotalMatchesLines(t, stored)
}

func TestCartService_UpdateItem_Missing(t *testing.T) {
	svc, store := newCartFixture()
	p := store.addProduct("shirt", 20, 10)
	ctx := context.Background()

	_, err := svc.UpdateItem(ctx, CartOwner{GuestID: "nobody"}, dto.CartItemRequest{ProductID: p.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrCartNotFound)

	_, _, err = svc.AddItem(ctx, CartOwner{GuestID: "g"}, dto.CartItemRequest{ProductID: p.ID, Size: "M", Quantity: 1})
	require.NoError(t, err)
	_, err = svc.UpdateItem(ctx, CartOwner{GuestID: "g"}, dto.CartItemRequest{ProductID: p.ID, Size: "L", Quantity: 1})
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartService_DeleteEntire(t *testing.T) {
	svc, store := newCartFixture()
	p := store.addProduct("shirt", 20, 10)
	ctx := context.Background()

	cart, _, err := svc.AddItem(ctx, CartOwner{GuestID: "g"}, dto.CartItemRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	id, err := svc.DeleteEntire(ctx, CartOwner{GuestID: "g"})
	require.NoError(t, err)
	assert.Equal(t, cart.ID, id)
	assert.Empty(t, store.carts)

	_, err = svc.DeleteEntire(ctx, CartOwner{GuestID: "g"})
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestCartService_Merge_SumsMatchingLines(t *testing.T) {
	svc, store := newCartFixture()
	p1 := store.addProduct("p1", 10, 10)
	p2 := store.addProduct("p2", 15, 10)
	userID := uuid.New()
	ctx := context.Background()

	_, _, err := svc.AddItem(ctx, CartOwner{UserID: &userID}, dto.CartItemRequest{ProductID: p1.ID, Size: "M", Color: "Red", Quantity: 2})
	require.NoError(t, err)
	_, _, err = svc.AddItem(ctx, CartOwner{GuestID: "guest_1"}, dto.CartItemRequest{ProductID: p1.ID, Size: "M", Color: "Red", Quantity: 1})
	require.NoError(t, err)
	_, _, err = svc.AddItem(ctx, CartOwner{GuestID: "guest_1"}, dto.CartItemRequest{ProductID: p2.ID, Size: "S", Quantity: 1})
	require.NoError(t, err)

	merged, err := svc.Merge(ctx, userID, "guest_1")
	require.NoError(t, err)
	require.Len(t, merged.Items, 2)
	assert.Equal(t, 3, merged.Items[0].Quantity)
	assert.Equal(t, p2.ID, merged.Items[1].ProductID)
	requireTotalMatchesLines(t, merged)

	require.Len(t, store.carts, 1)
	for _, c := range store.carts {
		require.NotNil(t, c.UserID)
		assert.Equal(t, userID, *c.UserID)
		assert.Nil(t, c.GuestID)
	}
}

func TestCartService_Merge_AdoptsGuestCart(t *testing.T) {
	svc, store := newCartFixture()
	p := store.addProduct("p", 10, 10)
	userID := uuid.New()
	ctx := context.Background()

	guest, _, err := svc.AddItem(ctx, CartOwner{GuestID: "guest_2"}, dto.CartItemRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	merged, err := svc.Merge(ctx, userID, "guest_2")
	require.NoError(t, err)
	assert.Equal(t, guest.ID, merged.ID)
	require.NotNil(t, merged.UserID)
	assert.Equal(t, userID, *merged.UserID)
	assert.Nil(t, merged.GuestID)
	assert.Nil(t, store.carts[guest.ID].GuestID)
}

func TestCartService_Merge_Failures(t *testing.T) {
	svc, store := newCartFixture()
	userID := uuid.New()
	ctx := context.Background()

	_, err := svc.Merge(ctx, userID, "missing")
	assert.ErrorIs(t, err, ErrGuestCartNotFound)

	guestID := "guest_empty"
	store.carts[uuid.New()] = &model.Cart{GuestID: &guestID}
	_, err = svc.Merge(ctx, userID, guestID)
	assert.ErrorIs(t, err, ErrGuestCartEmpty)
}

func TestCartService_Merge_NoGuestCartReturnsUserCart(t *testing.T) {
	svc, store := newCartFixture()
	p := store.addProduct("p", 10, 10)
	userID := uuid.New()
	ctx := context.Background()

	userCart, _, err := svc.AddItem(ctx, CartOwner{UserID: &userID}, dto.CartItemRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	merged, err := svc.Merge(ctx, userID, "missing")
	require.NoError(t, err)
	assert.Equal(t, userCart.ID, merged.ID)
}
