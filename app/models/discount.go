package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// DiscountCode is a redeemable code. UsageCount is only ever changed by an
// atomic increment inside the usage ledger transaction.
type DiscountCode struct {
	ID                string           `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Code              string           `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	DiscountType      string           `gorm:"type:varchar(16);not null" json:"discount_type"`
	Value             decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"value"`
	MaxDiscount       *decimal.Decimal `gorm:"type:decimal(12,2)" json:"max_discount,omitempty"`
	MinPurchaseAmount decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"min_purchase_amount"`
	UsageLimit        *int             `json:"usage_limit,omitempty"`
	UsageCount        int              `gorm:"not null;default:0" json:"usage_count"`
	ValidFrom         time.Time        `gorm:"not null" json:"valid_from"`
	ValidUntil        *time.Time       `json:"valid_until,omitempty"`
	IsActive          bool             `gorm:"not null;index" json:"is_active"`
	CreatedAt         time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// DiscountUsage is an append-only redemption record. Guests (nil UserID) are
// not covered by the (code, user) uniqueness.
type DiscountUsage struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	DiscountCodeID string          `gorm:"type:varchar(64);not null;index:ux_discount_usages_code_user,unique,priority:1" json:"discount_code_id"`
	UserID         *string         `gorm:"type:varchar(64);index:ux_discount_usages_code_user,unique,priority:2" json:"user_id,omitempty"`
	OrderID        uint            `gorm:"not null;index" json:"order_id"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_amount"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
