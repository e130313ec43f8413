package service

import (
	"context"
	"errors"
	"fmt"

	"marketplace-api/internal/model"
	"marketplace-api/internal/repository"

	"gorm.io/gorm"
)

// subOrderTransitions lists which current statuses may move to a target
// status. PENDING is set exclusively by the confirm flow.
var subOrderTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderProcessing: {model.OrderPending},
	model.OrderShipped:    {model.OrderProcessing},
	model.OrderDelivered:  {model.OrderShipped},
	model.OrderCancelled:  {model.OrderPending, model.OrderProcessing},
}

type OrderService interface {
	ListByUser(ctx context.Context, userID string) ([]*model.Order, error)
	GetForUser(ctx context.Context, userID, orderID string) (*model.Order, error)
	ListAll(ctx context.Context) ([]*model.Order, error)

	ListSubOrdersForMerchant(ctx context.Context, merchantID string) ([]*model.SubOrder, error)
	UpdateSubOrderStatus(ctx context.Context, merchantID, subOrderID string, status model.OrderStatus) error
}

type orderServiceImpl struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderServiceImpl{
		orderRepo: orderRepo,
	}
}

func (s *orderServiceImpl) ListByUser(ctx context.Context, userID string) ([]*model.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

func (s *orderServiceImpl) GetForUser(ctx context.Context, userID, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}

	return order, nil
}

func (s *orderServiceImpl) ListAll(ctx context.Context) ([]*model.Order, error) {
	return s.orderRepo.ListAll(ctx)
}

func (s *orderServiceImpl) ListSubOrdersForMerchant(ctx context.Context, merchantID string) ([]*model.SubOrder, error) {
	return s.orderRepo.ListSubOrdersByMerchant(ctx, merchantID)
}

func (s *orderServiceImpl) UpdateSubOrderStatus(ctx context.Context, merchantID, subOrderID string, status model.OrderStatus) error {
	from, ok := subOrderTransitions[status]
	if !ok {
		return fmt.Errorf("%w: cannot set status %s", ErrInvalidTransition, status)
	}

	subOrder, err := s.orderRepo.FindSubOrderByID(ctx, subOrderID)
	if err != nil {
		return err
	}
	if subOrder.MerchantID != merchantID {
		return ErrForbidden
	}

	err = s.orderRepo.UpdateSubOrderStatus(ctx, subOrderID, from, status)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s cannot move to %s", ErrInvalidTransition, subOrder.Status, status)
	}

	return err
}
