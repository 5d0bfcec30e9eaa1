package repository

import (
	"context"

	"github.com/ManuelReschke/ShopFox/app/models"
	"gorm.io/gorm"
)

// pendingOrderRepository implements the PendingOrderRepository interface
type pendingOrderRepository struct {
	db *gorm.DB
}

// NewPendingOrderRepository creates a new pending order repository instance
func NewPendingOrderRepository(db *gorm.DB) PendingOrderRepository {
	return &pendingOrderRepository{db: db}
}

// Create inserts a new pending order. An existing order_ref is never
// overwritten; the duplicate key error is returned to the caller.
func (r *pendingOrderRepository) Create(ctx context.Context, order *models.PendingOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetByRef retrieves a pending order by its reference
func (r *pendingOrderRepository) GetByRef(ctx context.Context, orderRef string) (*models.PendingOrder, error) {
	var order models.PendingOrder
	err := r.db.WithContext(ctx).Where("order_ref = ?", orderRef).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdatePaymentStatus annotates a pending order with a non-terminal gateway state
func (r *pendingOrderRepository) UpdatePaymentStatus(ctx context.Context, orderRef, status string) error {
	res := r.db.WithContext(ctx).Model(&models.PendingOrder{}).
		Where("order_ref = ?", orderRef).
		Update("payment_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a pending order by its reference. It returns
// gorm.ErrRecordNotFound when no row was removed, so a reference can be
// consumed only once.
func (r *pendingOrderRepository) Delete(ctx context.Context, orderRef string) error {
	res := r.db.WithContext(ctx).Where("order_ref = ?", orderRef).Delete(&models.PendingOrder{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
