package discounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuelReschke/ShopFox/app/models"
	"github.com/ManuelReschke/ShopFox/app/repository"
	"github.com/shopspring/decimal"
)

// Ledger records discount redemptions.
type Ledger struct {
	repo repository.DiscountRepository
}

// NewLedger creates a ledger on top of the discount repository.
func NewLedger(repo repository.DiscountRepository) *Ledger {
	return &Ledger{repo: repo}
}

// RegisterUsage appends the usage record and increments the code's
// usage_count atomically. It is a successful no-op when codeID is empty or
// amount is not positive. The message is meant for logs.
func (l *Ledger) RegisterUsage(ctx context.Context, codeID string, userID *string, orderID uint, amount decimal.Decimal) (string, error) {
	if codeID == "" || !amount.IsPositive() {
		return "no discount to register", nil
	}

	usage := &models.DiscountUsage{
		DiscountCodeID: codeID,
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: amount.Round(2),
	}
	err := l.repo.RegisterUsage(ctx, usage)
	switch {
	case err == nil:
		return fmt.Sprintf("discount %s registered for order %d", codeID, orderID), nil
	case errors.Is(err, repository.ErrDiscountAlreadyRedeemed):
		return fmt.Sprintf("discount %s already redeemed by user %s", codeID, userLabel(userID)), err
	case errors.Is(err, repository.ErrDiscountUsageLimitReached):
		return fmt.Sprintf("discount %s usage limit reached", codeID), err
	default:
		return fmt.Sprintf("discount %s could not be registered", codeID), fmt.Errorf("register discount usage: %w", err)
	}
}

func userLabel(userID *string) string {
	if userID == nil || *userID == "" {
		return "guest"
	}
	return *userID
}
