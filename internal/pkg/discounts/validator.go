package discounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuelReschke/ShopFox/app/models"
	"github.com/ManuelReschke/ShopFox/app/repository"
	"github.com/shopspring/decimal"
)

var (
	ErrCodeNotFound        = errors.New("discount code not found")
	ErrCodeInactive        = errors.New("discount code is not active")
	ErrCodeNotYetValid     = errors.New("discount code is not valid yet")
	ErrCodeExpired         = errors.New("discount code has expired")
	ErrUsageLimitReached   = errors.New("discount code usage limit reached")
	ErrMinimumNotMet       = errors.New("subtotal below discount minimum purchase amount")
	ErrAlreadyRedeemed     = errors.New("discount code already used by this user")
	ErrUnknownDiscountType = errors.New("unknown discount type")
)

var hundred = decimal.NewFromInt(100)

// IsRejection reports whether err means the code cannot be applied, as
// opposed to a storage failure.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrCodeNotFound, ErrCodeInactive, ErrCodeNotYetValid, ErrCodeExpired,
		ErrUsageLimitReached, ErrMinimumNotMet, ErrAlreadyRedeemed, ErrUnknownDiscountType,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Validation is an accepted discount for a given subtotal.
type Validation struct {
	Code   *models.DiscountCode
	Amount decimal.Decimal
}

// Validator checks discount codes at checkout time.
type Validator struct {
	repo repository.DiscountRepository
	now  func() time.Time
}

// NewValidator creates a validator reading codes from repo.
func NewValidator(repo repository.DiscountRepository) *Validator {
	return &Validator{repo: repo, now: time.Now}
}

// Validate resolves code and computes the discount for subtotal. userID may
// be nil for guests, in which case the per-user reuse check is skipped.
func (v *Validator) Validate(ctx context.Context, code string, subtotal decimal.Decimal, userID *string) (*Validation, error) {
	dc, err := v.repo.GetByCode(ctx, code)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("load discount code: %w", err)
	}

	now := v.now().UTC()
	switch {
	case !dc.IsActive:
		return nil, ErrCodeInactive
	case now.Before(dc.ValidFrom):
		return nil, ErrCodeNotYetValid
	case dc.ValidUntil != nil && !now.Before(*dc.ValidUntil):
		return nil, ErrCodeExpired
	case dc.UsageLimit != nil && dc.UsageCount >= *dc.UsageLimit:
		return nil, ErrUsageLimitReached
	case subtotal.LessThan(dc.MinPurchaseAmount):
		return nil, ErrMinimumNotMet
	}

	if userID != nil && *userID != "" {
		used, err := v.repo.HasUsage(ctx, dc.ID, *userID)
		if err != nil {
			return nil, fmt.Errorf("check discount usage: %w", err)
		}
		if used {
			return nil, ErrAlreadyRedeemed
		}
	}

	amount, err := Amount(dc, subtotal)
	if err != nil {
		return nil, err
	}
	return &Validation{Code: dc, Amount: amount}, nil
}

// Amount computes the discount of dc for subtotal: a percentage capped by
// MaxDiscount or a flat value, never more than subtotal, rounded to cents.
func Amount(dc *models.DiscountCode, subtotal decimal.Decimal) (decimal.Decimal, error) {
	var amount decimal.Decimal
	switch dc.DiscountType {
	case models.DiscountTypePercentage:
		amount = subtotal.Mul(dc.Value).Div(hundred)
		if dc.MaxDiscount != nil && amount.GreaterThan(*dc.MaxDiscount) {
			amount = *dc.MaxDiscount
		}
	case models.DiscountTypeFixed:
		amount = dc.Value
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownDiscountType, dc.DiscountType)
	}

	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount.Round(2), nil
}
