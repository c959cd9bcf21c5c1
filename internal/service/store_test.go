package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/rabbit-store-api/internal/model"
	"github.com/flicky/rabbit-store-api/internal/repository"
)

// memStore backs the in-memory repositories used by service tests. Reads
// return copies so services only change state through repository calls.
type memStore struct {
	users     map[uuid.UUID]*model.User
	favorites map[uuid.UUID][]uuid.UUID
	products  map[uuid.UUID]*model.Product
	carts     map[uuid.UUID]*model.Cart
	checkouts map[uuid.UUID]*model.Checkout
	orders    map[uuid.UUID]*model.Order
	locked    []uuid.UUID // products locked FOR UPDATE, in call order
	coupons   map[uuid.UUID]*model.Coupon

	sales []model.SalesBucket
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[uuid.UUID]*model.User),
		favorites: make(map[uuid.UUID][]uuid.UUID),
		products:  make(map[uuid.UUID]*model.Product),
		carts:     make(map[uuid.UUID]*model.Cart),
		checkouts: make(map[uuid.UUID]*model.Checkout),
		orders:    make(map[uuid.UUID]*model.Order),
		coupons:   make(map[uuid.UUID]*model.Coupon),
	}
}

func cloneCart(c *model.Cart) *model.Cart {
	cp := *c
	cp.Items = append([]model.LineItem(nil), c.Items...)
	return &cp
}

func cloneCoupon(c *model.Coupon) *model.Coupon {
	cp := *c
	cp.UsedBy = append([]uuid.UUID(nil), c.UsedBy...)
	return &cp
}

func cloneUser(u *model.User) *model.User {
	cp := *u
	cp.ShippingAddresses = append([]model.Address(nil), u.ShippingAddresses...)
	return &cp
}

func (s *memStore) snapshot() *memStore {
	snap := newMemStore()
	for k, v := range s.users {
		snap.users[k] = cloneUser(v)
	}
	for k, v := range s.favorites {
		snap.favorites[k] = append([]uuid.UUID(nil), v...)
	}
	for k, v := range s.products {
		cp := *v
		snap.products[k] = &cp
	}
	for k, v := range s.carts {
		snap.carts[k] = cloneCart(v)
	}
	for k, v := range s.checkouts {
		cp := *v
		snap.checkouts[k] = &cp
	}
	for k, v := range s.orders {
		cp := *v
		snap.orders[k] = &cp
	}
	for k, v := range s.coupons {
		snap.coupons[k] = cloneCoupon(v)
	}
	snap.sales = s.sales
	return snap
}

func (s *memStore) restore(snap *memStore) {
	s.users, s.favorites, s.products = snap.users, snap.favorites, snap.products
	s.carts, s.checkouts, s.orders, s.coupons = snap.carts, snap.checkouts, snap.orders, snap.coupons
}

func (s *memStore) tx() repository.Tx {
	return repository.Tx{
		Products:  &memProducts{s},
		Carts:     &memCarts{s},
		Checkouts: &memCheckouts{s},
		Orders:    &memOrders{s},
		Coupons:   &memCoupons{s},
	}
}

// memTxRunner rolls the store back when fn fails.
type memTxRunner struct{ s *memStore }

func (r *memTxRunner) InTx(_ context.Context, fn func(tx repository.Tx) error) error {
	snap := r.s.snapshot()
	if err := fn(r.s.tx()); err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}

// --- Users ---

type memUsers struct{ s *memStore }

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	for _, existing := range m.s.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = uuid.New()
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	m.s.users[u.ID] = cloneUser(u)
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := m.s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (m *memUsers) List(_ context.Context, limit, offset int) ([]model.User, int, error) {
	var all []model.User
	for _, u := range m.s.users {
		all = append(all, *cloneUser(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	return page(all, limit, offset), len(all), nil
}

func (m *memUsers) Update(_ context.Context, u *model.User) error {
	if _, ok := m.s.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range m.s.users {
		if id != u.ID && existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	m.s.users[u.ID] = cloneUser(u)
	return nil
}

func (m *memUsers) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.users, id)
	return nil
}

func (m *memUsers) Count(_ context.Context) (int, error) { return len(m.s.users), nil }

func (m *memUsers) AddFavorite(_ context.Context, userID, productID uuid.UUID) error {
	for _, id := range m.s.favorites[userID] {
		if id == productID {
			return repository.ErrDuplicate
		}
	}
	m.s.favorites[userID] = append(m.s.favorites[userID], productID)
	return nil
}

func (m *memUsers) RemoveFavorite(_ context.Context, userID, productID uuid.UUID) error {
	favs := m.s.favorites[userID]
	for i, id := range favs {
		if id == productID {
			m.s.favorites[userID] = append(favs[:i], favs[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memUsers) ListFavorites(_ context.Context, userID uuid.UUID) ([]model.Product, error) {
	out := []model.Product{}
	for _, id := range m.s.favorites[userID] {
		if p, ok := m.s.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

// --- Products ---

type memProducts struct{ s *memStore }

func (m *memProducts) Create(_ context.Context, p *model.Product) error {
	for _, existing := range m.s.products {
		if existing.SKU == p.SKU {
			return repository.ErrDuplicate
		}
	}
	p.ID = uuid.New()
	p.CreatedAt, p.UpdatedAt = time.Now(), time.Now()
	cp := *p
	m.s.products[p.ID] = &cp
	return nil
}

func (m *memProducts) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	if p, ok := m.s.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *memProducts) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	m.s.locked = append(m.s.locked, id)
	return m.GetByID(ctx, id)
}

func (m *memProducts) List(_ context.Context, f model.ProductFilter, limit, offset int) ([]model.Product, int, error) {
	var all []model.Product
	for _, p := range m.s.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.MinPrice.Valid && p.Price.LessThan(f.MinPrice.Decimal) {
			continue
		}
		if f.MaxPrice.Valid && p.Price.GreaterThan(f.MaxPrice.Decimal) {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Price.LessThan(all[j].Price) })
	return page(all, limit, offset), len(all), nil
}

func (m *memProducts) Update(_ context.Context, p *model.Product) error {
	if _, ok := m.s.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range m.s.products {
		if id != p.ID && existing.SKU == p.SKU {
			return repository.ErrDuplicate
		}
	}
	cp := *p
	m.s.products[p.ID] = &cp
	return nil
}

func (m *memProducts) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.products, id)
	return nil
}

func (m *memProducts) DecrementStock(_ context.Context, id uuid.UUID, qty int) error {
	p, ok := m.s.products[id]
	if !ok || p.Stock < qty {
		return repository.ErrInsufficientStock
	}
	p.Stock -= qty
	return nil
}

// --- Carts ---

type memCarts struct{ s *memStore }

func (m *memCarts) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Cart, error) {
	for _, c := range m.s.carts {
		if c.UserID != nil && *c.UserID == userID {
			return cloneCart(c), nil
		}
	}
	return nil, nil
}

func (m *memCarts) GetByGuestID(_ context.Context, guestID string) (*model.Cart, error) {
	for _, c := range m.s.carts {
		if c.GuestID != nil && *c.GuestID == guestID {
			return cloneCart(c), nil
		}
	}
	return nil, nil
}

func (m *memCarts) Create(_ context.Context, c *model.Cart) error {
	if (c.UserID == nil) == (c.GuestID == nil) {
		return errors.New("cart must have exactly one owner")
	}
	c.ID = uuid.New()
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	m.s.carts[c.ID] = cloneCart(c)
	return nil
}

func (m *memCarts) Save(_ context.Context, c *model.Cart) error {
	if _, ok := m.s.carts[c.ID]; !ok {
		return repository.ErrNotFound
	}
	if (c.UserID == nil) == (c.GuestID == nil) {
		return errors.New("cart must have exactly one owner")
	}
	m.s.carts[c.ID] = cloneCart(c)
	return nil
}

func (m *memCarts) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.s.carts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.carts, id)
	return nil
}

func (m *memCarts) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	for id, c := range m.s.carts {
		if c.UserID != nil && *c.UserID == userID {
			delete(m.s.carts, id)
		}
	}
	return nil
}

// --- Checkouts ---

type memCheckouts struct{ s *memStore }

func (m *memCheckouts) Create(_ context.Context, c *model.Checkout) error {
	c.ID = uuid.New()
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	cp := *c
	m.s.checkouts[c.ID] = &cp
	return nil
}

func (m *memCheckouts) GetByID(_ context.Context, id uuid.UUID) (*model.Checkout, error) {
	if c, ok := m.s.checkouts[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m *memCheckouts) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Checkout, error) {
	return m.GetByID(ctx, id)
}

func (m *memCheckouts) MarkPaid(_ context.Context, id uuid.UUID, details json.RawMessage, paidAt time.Time) (*model.Checkout, error) {
	c, ok := m.s.checkouts[id]
	if !ok || c.IsPaid {
		return nil, repository.ErrConditionFailed
	}
	c.IsPaid = true
	c.PaymentStatus = model.PaymentStatusPaid
	c.PaymentDetails = details
	c.PaidAt = &paidAt
	cp := *c
	return &cp, nil
}

func (m *memCheckouts) MarkFinalized(_ context.Context, id uuid.UUID, at time.Time) error {
	c, ok := m.s.checkouts[id]
	if !ok || c.IsFinalized {
		return repository.ErrConditionFailed
	}
	c.IsFinalized = true
	c.FinalizedAt = &at
	return nil
}

// --- Orders ---

type memOrders struct{ s *memStore }

func (m *memOrders) Create(_ context.Context, o *model.Order) error {
	if o.CheckoutID != nil {
		for _, existing := range m.s.orders {
			if existing.CheckoutID != nil && *existing.CheckoutID == *o.CheckoutID {
				return repository.ErrDuplicate
			}
		}
	}
	o.ID = uuid.New()
	o.CreatedAt, o.UpdatedAt = time.Now(), time.Now()
	cp := *o
	m.s.orders[o.ID] = &cp
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	if o, ok := m.s.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

func (m *memOrders) sorted() []model.Order {
	var all []model.Order
	for _, o := range m.s.orders {
		all = append(all, *o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all
}

func (m *memOrders) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.sorted() {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrders) List(_ context.Context, limit, offset int) ([]model.Order, int, error) {
	all := m.sorted()
	return page(all, limit, offset), len(all), nil
}

func (m *memOrders) Recent(_ context.Context, limit int) ([]model.Order, error) {
	return page(m.sorted(), limit, 0), nil
}

func (m *memOrders) UpdateStatus(_ context.Context, o *model.Order) error {
	existing, ok := m.s.orders[o.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Status, existing.IsDelivered, existing.DeliveredAt = o.Status, o.IsDelivered, o.DeliveredAt
	return nil
}

func (m *memOrders) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.s.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.orders, id)
	return nil
}

func (m *memOrders) Count(_ context.Context) (int, error) { return len(m.s.orders), nil }

func (m *memOrders) TotalRevenue(_ context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, o := range m.s.orders {
		total = total.Add(o.TotalPrice)
	}
	return total, nil
}

func (m *memOrders) SalesByPeriod(_ context.Context, _ string) ([]model.SalesBucket, error) {
	return m.s.sales, nil
}

// StatisticsByPeriod groups every stored order by created_at, oldest first.
func (m *memOrders) StatisticsByPeriod(_ context.Context, period string) ([]model.SalesBucket, error) {
	index := make(map[[2]int]*model.SalesBucket)
	var keys [][2]int
	for _, o := range m.s.orders {
		key := [2]int{o.CreatedAt.Year(), 0}
		switch period {
		case "monthly":
			key[1] = int(o.CreatedAt.Month())
		case "quarterly":
			key[1] = (int(o.CreatedAt.Month())-1)/3 + 1
		}
		b, ok := index[key]
		if !ok {
			b = &model.SalesBucket{Year: key[0], Period: key[1]}
			index[key] = b
			keys = append(keys, key)
		}
		b.Count++
		b.TotalSales = b.TotalSales.Add(o.TotalPrice)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	out := make([]model.SalesBucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, *index[k])
	}
	return out, nil
}

// --- Coupons ---

type memCoupons struct{ s *memStore }

func (m *memCoupons) Create(_ context.Context, c *model.Coupon) error {
	for _, existing := range m.s.coupons {
		if existing.Code == c.Code {
			return repository.ErrDuplicate
		}
	}
	c.ID = uuid.New()
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	m.s.coupons[c.ID] = cloneCoupon(c)
	return nil
}

func (m *memCoupons) GetByID(_ context.Context, id uuid.UUID) (*model.Coupon, error) {
	if c, ok := m.s.coupons[id]; ok {
		return cloneCoupon(c), nil
	}
	return nil, nil
}

func (m *memCoupons) GetByCode(_ context.Context, code string) (*model.Coupon, error) {
	for _, c := range m.s.coupons {
		if c.Code == code {
			return cloneCoupon(c), nil
		}
	}
	return nil, nil
}

func (m *memCoupons) List(_ context.Context) ([]model.Coupon, error) {
	var out []model.Coupon
	for _, c := range m.s.coupons {
		out = append(out, *cloneCoupon(c))
	}
	return out, nil
}

func (m *memCoupons) Update(_ context.Context, c *model.Coupon) error {
	if _, ok := m.s.coupons[c.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range m.s.coupons {
		if id != c.ID && existing.Code == c.Code {
			return repository.ErrDuplicate
		}
	}
	m.s.coupons[c.ID] = cloneCoupon(c)
	return nil
}

func (m *memCoupons) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.s.coupons[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.coupons, id)
	return nil
}

func (m *memCoupons) MarkUsed(_ context.Context, id, userID uuid.UUID) error {
	c, ok := m.s.coupons[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !c.UsedByUser(userID) {
		c.UsedBy = append(c.UsedBy, userID)
	}
	return nil
}

// --- Side effects ---

type recordingPublisher struct {
	msgs []model.OrderMessage
	err  error
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, msg model.OrderMessage) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

type recordingCache struct{ invalidated []uuid.UUID }

func (c *recordingCache) Invalidate(_ context.Context, ids ...uuid.UUID) {
	c.invalidated = append(c.invalidated, ids...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *memStore) addProduct(name string, price int64, stock int) *model.Product {
	p := &model.Product{
		ID: uuid.New(), Name: name, SKU: name, Price: decimal.NewFromInt(price), Stock: stock,
		Images: []model.ProductImage{{URL: "https://img/" + name + ".jpg"}},
	}
	s.products[p.ID] = p
	return p
}
