package repository

import (
	"context"
	"marketplace-api/internal/model"
	"time"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateSubOrders(ctx context.Context, tx *gorm.DB, subOrders []*model.SubOrder) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Order, error)
	ListAll(ctx context.Context) ([]*model.Order, error)
	MarkEmailNotificationsSent(ctx context.Context, orderID string) error

	FindSubOrderByID(ctx context.Context, subOrderID string) (*model.SubOrder, error)
	ListSubOrdersByMerchant(ctx context.Context, merchantID string) ([]*model.SubOrder, error)
	UpdateSubOrderStatus(ctx context.Context, subOrderID string, from []model.OrderStatus, to model.OrderStatus) error

	Count(ctx context.Context) (int64, error)
	SumRevenue(ctx context.Context) (float64, error)
	MerchantStats(ctx context.Context, merchantID string) (count int64, revenue, payout float64, err error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) CreateSubOrders(ctx context.Context, tx *gorm.DB, subOrders []*model.SubOrder) error {
	return tx.WithContext(ctx).Create(&subOrders).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("SubOrders").
		Preload("SubOrders.Items").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("SubOrders").
		Preload("SubOrders.Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) ListAll(ctx context.Context) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("SubOrders").
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) MarkEmailNotificationsSent(ctx context.Context, orderID string) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"email_notifications_sent": true,
			"updated_at":               time.Now(),
		}).Error
}

func (r *orderRepoImpl) FindSubOrderByID(ctx context.Context, subOrderID string) (*model.SubOrder, error) {
	var subOrder model.SubOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", subOrderID).
		First(&subOrder).Error
	if err != nil {
		return nil, err
	}

	return &subOrder, nil
}

func (r *orderRepoImpl) ListSubOrdersByMerchant(ctx context.Context, merchantID string) ([]*model.SubOrder, error) {
	var subOrders []*model.SubOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Find(&subOrders).Error
	if err != nil {
		return nil, err
	}

	return subOrders, nil
}

// UpdateSubOrderStatus moves a sub-order to the target status only when its
// current status is in the allowed set, so stale dashboard actions cannot
// rewind the lifecycle.
func (r *orderRepoImpl) UpdateSubOrderStatus(ctx context.Context, subOrderID string, from []model.OrderStatus, to model.OrderStatus) error {
	result := r.db.WithContext(ctx).Model(&model.SubOrder{}).
		Where("id = ? AND status IN ?", subOrderID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *orderRepoImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Count(&count).Error
	return count, err
}

func (r *orderRepoImpl) SumRevenue(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("COALESCE(SUM(grand_total), 0)").
		Where("status <> ?", model.OrderCancelled).
		Scan(&total).Error
	return total, err
}

func (r *orderRepoImpl) MerchantStats(ctx context.Context, merchantID string) (int64, float64, float64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SubOrder{}).
		Where("merchant_id = ?", merchantID).
		Count(&count).Error
	if err != nil {
		return 0, 0, 0, err
	}

	var sums struct {
		Revenue float64
		Payout  float64
	}
	err = r.db.WithContext(ctx).Model(&model.SubOrder{}).
		Select("COALESCE(SUM(subtotal), 0) AS revenue, COALESCE(SUM(payout_amount), 0) AS payout").
		Where("merchant_id = ? AND status <> ?", merchantID, model.OrderCancelled).
		Scan(&sums).Error
	if err != nil {
		return 0, 0, 0, err
	}

	return count, sums.Revenue, sums.Payout, nil
}
