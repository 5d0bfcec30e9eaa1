package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/ShopFox/app/models"
	"github.com/ManuelReschke/ShopFox/app/repository"
	"github.com/ManuelReschke/ShopFox/internal/pkg/discounts"
	"github.com/ManuelReschke/ShopFox/internal/pkg/payments"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var (
	// ErrOrderRefCollision means the generated reference already exists.
	// Pending orders are never overwritten.
	ErrOrderRefCollision = errors.New("order reference collision")
	ErrInvalidRequest    = errors.New("invalid pending order request")
	ErrMissingSecret     = errors.New("integrity secret not configured")
)

// Request is the checkout payload for a new pending order.
type Request struct {
	Provider     string              `json:"provider" validate:"required,oneof=bold paypal wompi"`
	Customer     models.CustomerInfo `json:"customer" validate:"required"`
	Items        []models.LineItem   `json:"items" validate:"required,min=1,max=50,dive"`
	Subtotal     decimal.Decimal     `json:"subtotal"`
	ShippingCost decimal.Decimal     `json:"shipping_cost"`
	ExchangeRate decimal.Decimal     `json:"exchange_rate"`
	UserID       *string             `json:"user_id,omitempty" validate:"omitempty,max=64"`
	DiscountCode string              `json:"discount_code,omitempty" validate:"omitempty,max=64"`
}

// Result is what the client hands untouched to the payment widget.
type Result struct {
	OrderRef           string          `json:"order_ref"`
	Amount             int64           `json:"amount"`
	Currency           string          `json:"currency"`
	IntegritySignature string          `json:"integrity_signature,omitempty"`
	Total              decimal.Decimal `json:"total"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
}

// Creator writes pending orders.
type Creator struct {
	orders    repository.PendingOrderRepository
	discounts *discounts.Validator
	validate  *validator.Validate
	surcharge decimal.Decimal
	secrets   map[string]string
	now       func() time.Time
	newSuffix func() string
}

// NewCreator creates a Creator. integritySecrets maps a provider to the
// secret its integrity signature is computed with.
func NewCreator(orders repository.PendingOrderRepository, validator *discounts.Validator, surcharge decimal.Decimal, integritySecrets map[string]string) *Creator {
	return &Creator{
		orders:    orders,
		discounts: validator,
		validate:  newValidator(),
		surcharge: surcharge,
		secrets:   integritySecrets,
		now:       time.Now,
		newSuffix: randomSuffix,
	}
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// NewOrderRef returns order_<unix-seconds>_<8 hex chars>.
func NewOrderRef(now time.Time, suffix string) string {
	return fmt.Sprintf("order_%d_%s", now.Unix(), suffix)
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Create validates req, prices the cart and stores the pending order.
func (c *Creator) Create(ctx context.Context, req Request) (*Result, error) {
	if err := c.validate.StructCtx(ctx, req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := checkAmounts(req); err != nil {
		return nil, err
	}

	subtotal := payments.Subtotal(req.Items, c.surcharge)
	if !subtotal.Equal(req.Subtotal) {
		return nil, fmt.Errorf("%w: subtotal %s, items sum to %s", payments.ErrAmountMismatch, req.Subtotal, subtotal)
	}

	currency := payments.CurrencyFor(req.Provider)
	rate := req.ExchangeRate
	if currency == payments.CurrencyUSD {
		rate = decimal.NewFromInt(1)
	}

	discount := decimal.Zero
	var discountCodeID *string
	if code := strings.TrimSpace(req.DiscountCode); code != "" {
		if c.discounts == nil {
			return nil, fmt.Errorf("%w: discounts disabled", ErrInvalidRequest)
		}
		v, err := c.discounts.Validate(ctx, code, subtotal, req.UserID)
		if err != nil {
			return nil, err
		}
		discount = v.Amount
		discountCodeID = &v.Code.ID
	}

	total := subtotal.Add(req.ShippingCost).Sub(discount)
	amountMinor := payments.ToMinorUnits(total, rate, currency)

	var secret string
	if req.Provider != models.PaymentProviderPayPal {
		if secret = c.secrets[req.Provider]; secret == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingSecret, req.Provider)
		}
	}

	orderRef := NewOrderRef(c.now(), c.newSuffix())
	signature := ""
	if secret != "" {
		signature = payments.IntegritySignature(orderRef, amountMinor, currency, secret)
	}

	pending := &models.PendingOrder{
		OrderRef: orderRef,
		UserID:   req.UserID,
		OrderDetails: datatypes.NewJSONType(models.OrderDetails{
			Items:    req.Items,
			Customer: req.Customer,
		}),
		DiscountCodeID:     discountCodeID,
		DiscountAmount:     discount,
		Subtotal:           subtotal,
		ShippingCost:       req.ShippingCost,
		ExchangeRate:       rate,
		AmountMinor:        amountMinor,
		Currency:           currency,
		PaymentProvider:    req.Provider,
		IntegritySignature: signature,
		PaymentStatus:      models.PaymentStatusAwaiting,
	}
	if err := c.orders.Create(ctx, pending); err != nil {
		if repository.IsDuplicateKey(err) {
			log.Errorw("[Checkout] order reference collision", "order_ref", orderRef)
			return nil, fmt.Errorf("%w: %s", ErrOrderRefCollision, orderRef)
		}
		return nil, fmt.Errorf("store pending order: %w", err)
	}

	log.Infow("[Checkout] pending order created",
		"order_ref", orderRef,
		"provider", req.Provider,
		"amount_minor", amountMinor,
		"currency", currency,
	)
	return &Result{
		OrderRef:           orderRef,
		Amount:             amountMinor,
		Currency:           currency,
		IntegritySignature: signature,
		Total:              total,
		DiscountAmount:     discount,
	}, nil
}

func checkAmounts(req Request) error {
	for i, item := range req.Items {
		if !item.Price.IsPositive() {
			return fmt.Errorf("%w: item %d has no positive price", ErrInvalidRequest, i)
		}
	}
	if req.ShippingCost.IsNegative() {
		return fmt.Errorf("%w: negative shipping cost", ErrInvalidRequest)
	}
	if req.Provider != models.PaymentProviderPayPal && !req.ExchangeRate.IsPositive() {
		return fmt.Errorf("%w: exchange rate required for %s", ErrInvalidRequest, req.Provider)
	}
	return nil
}
