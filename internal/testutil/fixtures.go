package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/ManuelReschke/ShopFox/app/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PendingOrderOption tweaks a fixture before it is stored.
type PendingOrderOption func(*models.PendingOrder)

// WithDiscount attaches a discount code to the fixture.
func WithDiscount(codeID string, amount string) PendingOrderOption {
	return func(p *models.PendingOrder) {
		p.DiscountCodeID = &codeID
		p.DiscountAmount = decimal.RequireFromString(amount)
	}
}

// WithUser sets the registered user of the fixture.
func WithUser(userID string) PendingOrderOption {
	return func(p *models.PendingOrder) { p.UserID = &userID }
}

// WithProvider overrides gateway, currency and charge of the fixture.
func WithProvider(provider, currency string, amountMinor int64, signature string) PendingOrderOption {
	return func(p *models.PendingOrder) {
		p.PaymentProvider = provider
		p.Currency = currency
		p.AmountMinor = amountMinor
		p.IntegritySignature = signature
	}
}

// SamplePendingOrder returns a pending order with one plain and one
// customized item: 2 x 50.00 + 1 x 89.99 (JAMES/10).
func SamplePendingOrder(ref string, opts ...PendingOrderOption) *models.PendingOrder {
	p := &models.PendingOrder{
		OrderRef: ref,
		OrderDetails: datatypes.NewJSONType(models.OrderDetails{
			Items: []models.LineItem{
				{ProductID: "p-1", Name: "Home Jersey", Slug: "home-jersey", Category: "jerseys", Size: "M", Quantity: 2, Price: decimal.RequireFromString("50.00")},
				{ProductID: "p-2", Name: "Away Jersey", Slug: "away-jersey", Category: "jerseys", Size: "L", Quantity: 1, Price: decimal.RequireFromString("89.99"), CustomName: "JAMES", CustomNumber: "10"},
			},
			Customer: models.CustomerInfo{
				Name:       "Ana Gomez",
				Email:      "ana@example.com",
				Phone:      "3001234567",
				Address:    "Calle 1 # 2-3",
				City:       "Medellin",
				Department: "Antioquia",
			},
		}),
		Subtotal:        decimal.RequireFromString("194.99"),
		ShippingCost:    decimal.RequireFromString("10.00"),
		ExchangeRate:    decimal.NewFromInt(1),
		AmountMinor:     20499,
		Currency:        "USD",
		PaymentProvider: models.PaymentProviderPayPal,
		PaymentStatus:   models.PaymentStatusAwaiting,
		CreatedAt:       time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SeedPendingOrder stores a fixture built by SamplePendingOrder.
func SeedPendingOrder(t *testing.T, db *gorm.DB, ref string, opts ...PendingOrderOption) *models.PendingOrder {
	t.Helper()
	p := SamplePendingOrder(ref, opts...)
	require.NoError(t, db.WithContext(context.Background()).Create(p).Error)
	return p
}

// SeedDiscountCode stores an active code valid since yesterday.
func SeedDiscountCode(t *testing.T, db *gorm.DB, code *models.DiscountCode) *models.DiscountCode {
	t.Helper()
	if code.ValidFrom.IsZero() {
		code.ValidFrom = time.Now().UTC().Add(-24 * time.Hour)
	}
	require.NoError(t, db.Create(code).Error)
	return code
}
