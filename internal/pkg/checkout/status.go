package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuelReschke/ShopFox/app/models"
	"github.com/ManuelReschke/ShopFox/app/repository"
)

// ErrUnknownOrder means neither a pending nor a confirmed order exists.
var ErrUnknownOrder = errors.New("unknown order reference")

// Status is the payment state the storefront polls after redirecting back
// from the payment widget.
type Status struct {
	OrderRef      string `json:"order_ref"`
	PaymentStatus string `json:"payment_status"`
	Confirmed     bool   `json:"confirmed"`
	OrderID       uint   `json:"order_id,omitempty"`
}

// StatusReader resolves the payment state of an order reference.
type StatusReader struct {
	pending repository.PendingOrderRepository
	orders  repository.OrderRepository
}

func NewStatusReader(pending repository.PendingOrderRepository, orders repository.OrderRepository) *StatusReader {
	return &StatusReader{pending: pending, orders: orders}
}

// Lookup prefers a confirmed order, since a finalized pending order is gone.
func (r *StatusReader) Lookup(ctx context.Context, orderRef string) (*Status, error) {
	order, err := r.orders.GetByRef(ctx, "", orderRef)
	if err == nil {
		return &Status{OrderRef: orderRef, PaymentStatus: order.Status, Confirmed: true, OrderID: order.ID}, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("load order: %w", err)
	}

	pending, err := r.pending.GetByRef(ctx, orderRef)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUnknownOrder
		}
		return nil, fmt.Errorf("load pending order: %w", err)
	}
	status := pending.PaymentStatus
	if status == "" {
		status = models.PaymentStatusAwaiting
	}
	return &Status{OrderRef: orderRef, PaymentStatus: status}, nil
}
