package orders

import (
	"context"
	"fmt"

	"github.com/ManuelReschke/ShopFox/app/models"
	"github.com/ManuelReschke/ShopFox/app/repository"
)

// Guard detects gateway transactions that already produced an order. It is
// a fast path only; the unique index on (payment_provider,
// provider_transaction_id) is what makes duplicates impossible.
type Guard struct {
	orders repository.OrderRepository
}

func NewGuard(orders repository.OrderRepository) *Guard {
	return &Guard{orders: orders}
}

// Seen returns the existing order for the transaction, or nil.
func (g *Guard) Seen(ctx context.Context, provider, transactionID string) (*models.Order, error) {
	order, err := g.orders.GetByProviderTransaction(ctx, provider, transactionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	return order, nil
}
