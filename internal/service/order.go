package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/rabbit-store-api/internal/dto"
	"github.com/flicky/rabbit-store-api/internal/model"
	"github.com/flicky/rabbit-store-api/internal/repository"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("order cannot be canceled at this stage")
	ErrInvalidPeriod     = errors.New("invalid period")
)

// RecentOrdersLimit is how many orders the admin dashboard shows.
const RecentOrdersLimit = 10

type OrderService struct {
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	now       func() time.Time
}

func NewOrderService(orderRepo repository.OrderRepository, userRepo repository.UserRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo, userRepo: userRepo, now: time.Now}
}

func (s *OrderService) MyOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Order, error) {
	order, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(order.UserID) {
		return nil, ErrForbidden
	}
	return order, nil
}

// UpdateStatus is the customer-facing transition. Cancelling is only allowed
// while the order is still Processing.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	order, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if status == model.OrderStatusCanceled && order.Status != model.OrderStatusProcessing {
		return nil, ErrInvalidTransition
	}
	s.applyStatus(order, status)
	return order, s.save(ctx, order)
}

// AdminUpdate overwrites the status without transition rules.
func (s *OrderService) AdminUpdate(ctx context.Context, id uuid.UUID, req dto.AdminUpdateOrderRequest) (*model.Order, error) {
	order, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != "" {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		s.applyStatus(order, req.Status)
	}
	return order, s.save(ctx, order)
}

func (s *OrderService) applyStatus(order *model.Order, status model.OrderStatus) {
	order.Status = status
	if status == model.OrderStatusDelivered {
		now := s.now()
		order.IsDelivered = true
		order.DeliveredAt = &now
	}
}

func (s *OrderService) save(ctx context.Context, order *model.Order) error {
	if err := s.orderRepo.UpdateStatus(ctx, order); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}

func (s *OrderService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

func (s *OrderService) AdminList(ctx context.Context, q dto.PageQuery) (*dto.AdminOrderListResponse, error) {
	orders, total, err := s.orderRepo.List(ctx, q.Limit, q.Offset())
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	revenue, err := s.orderRepo.TotalRevenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("total revenue: %w", err)
	}
	return &dto.AdminOrderListResponse{
		Orders:       dto.NewOrderResponses(orders),
		Page:         q.Page,
		Pages:        dto.Pages(total, q.Limit),
		Total:        total,
		TotalRevenue: revenue,
	}, nil
}

// --- Revenue ---

func (s *OrderService) Summary(ctx context.Context) (*model.RevenueSummary, error) {
	customers, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	orders, err := s.orderRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	revenue, err := s.orderRepo.TotalRevenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("total revenue: %w", err)
	}
	return &model.RevenueSummary{TotalCustomers: customers, TotalOrders: orders, TotalRevenue: revenue}, nil
}

func validPeriod(period string) error {
	switch period {
	case "monthly", "quarterly", "yearly":
		return nil
	}
	return ErrInvalidPeriod
}

// periodOf splits a bucket's period number into month or quarter.
func periodOf(period string, b model.SalesBucket) (month, quarter int) {
	switch period {
	case "monthly":
		return b.Period, 0
	case "quarterly":
		return 0, b.Period
	}
	return 0, 0
}

// Sales buckets paid orders by the time they were paid.
func (s *OrderService) Sales(ctx context.Context, period string) ([]dto.SalesBucketResponse, error) {
	if err := validPeriod(period); err != nil {
		return nil, err
	}
	buckets, err := s.orderRepo.SalesByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("sales by period: %w", err)
	}

	out := make([]dto.SalesBucketResponse, 0, len(buckets))
	for _, b := range buckets {
		r := dto.SalesBucketResponse{Year: b.Year, TotalSales: b.TotalSales, Count: b.Count}
		r.Month, r.Quarter = periodOf(period, b)
		out = append(out, r)
	}
	return out, nil
}

// Statistics buckets every order by the time it was placed.
func (s *OrderService) Statistics(ctx context.Context, period string) ([]dto.OrderStatisticsResponse, error) {
	if err := validPeriod(period); err != nil {
		return nil, err
	}
	buckets, err := s.orderRepo.StatisticsByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("order statistics: %w", err)
	}

	out := make([]dto.OrderStatisticsResponse, 0, len(buckets))
	for _, b := range buckets {
		r := dto.OrderStatisticsResponse{Year: b.Year, TotalOrders: b.Count, TotalRevenue: b.TotalSales}
		r.Month, r.Quarter = periodOf(period, b)
		out = append(out, r)
	}
	return out, nil
}

func (s *OrderService) Recent(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orderRepo.Recent(ctx, RecentOrdersLimit)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	return orders, nil
}
