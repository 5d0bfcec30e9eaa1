package repository

import (
	"context"

	"github.com/ManuelReschke/ShopFox/app/models"
	"gorm.io/gorm"
)

// orderRepository implements the OrderRepository interface
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts the order together with its items. The unique index on
// (payment_provider, provider_transaction_id) rejects a second insert for
// the same gateway transaction.
func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetByID retrieves an order with its items
func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByProviderTransaction retrieves the order created for a gateway transaction
func (r *orderRepository) GetByProviderTransaction(ctx context.Context, provider, transactionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("payment_provider = ? AND provider_transaction_id = ?", provider, transactionID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByRef retrieves the newest order created from a pending order reference.
// An empty provider matches any gateway.
func (r *orderRepository) GetByRef(ctx context.Context, provider, orderRef string) (*models.Order, error) {
	var order models.Order
	q := r.db.WithContext(ctx).Where("order_ref = ?", orderRef)
	if provider != "" {
		q = q.Where("payment_provider = ?", provider)
	}
	if err := q.Order("id DESC").First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Count returns the total number of orders
func (r *orderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&count).Error
	return count, err
}

// CountItems returns the number of line items stored for an order
func (r *orderRepository) CountItems(ctx context.Context, orderID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("order_id = ?", orderID).Count(&count).Error
	return count, err
}
