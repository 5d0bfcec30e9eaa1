package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// CustomerInfo is the contact and shipping data collected at checkout.
type CustomerInfo struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email" validate:"required,email,max=200"`
	Phone      string `json:"phone" validate:"max=50"`
	Address    string `json:"address" validate:"max=300"`
	City       string `json:"city" validate:"max=100"`
	Department string `json:"department" validate:"max=100"`
}

// LineItem is one cart entry as the storefront saw it at checkout time.
type LineItem struct {
	ProductID    string          `json:"product_id" validate:"required,max=64"`
	Name         string          `json:"name" validate:"required,max=200"`
	Slug         string          `json:"slug" validate:"max=200"`
	ImageURL     string          `json:"image_url" validate:"max=500"`
	Category     string          `json:"category" validate:"max=100"`
	Size         string          `json:"size" validate:"max=20"`
	Quantity     int             `json:"quantity" validate:"required,gt=0,lte=100"`
	Price        decimal.Decimal `json:"price"`
	CustomName   string          `json:"custom_name" validate:"max=30"`
	CustomNumber string          `json:"custom_number" validate:"max=3"`
}

// IsCustomized reports whether the item carries a custom name or number.
func (li LineItem) IsCustomized() bool {
	return strings.TrimSpace(li.CustomName) != "" || strings.TrimSpace(li.CustomNumber) != ""
}

// OrderDetails is the snapshot that travels from the pending order to the
// confirmed order unchanged.
type OrderDetails struct {
	Items    []LineItem   `json:"items"`
	Customer CustomerInfo `json:"customer"`
}

// PendingOrder is a tentative, not-yet-paid order awaiting gateway confirmation.
type PendingOrder struct {
	OrderRef           string                           `gorm:"primaryKey;type:varchar(64)" json:"order_ref"`
	UserID             *string                          `gorm:"type:varchar(64);index" json:"user_id,omitempty"`
	OrderDetails       datatypes.JSONType[OrderDetails] `json:"order_details"`
	DiscountCodeID     *string                          `gorm:"type:varchar(64)" json:"discount_code_id,omitempty"`
	DiscountAmount     decimal.Decimal                  `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	Subtotal           decimal.Decimal                  `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal"`
	ShippingCost       decimal.Decimal                  `gorm:"type:decimal(12,2);not null;default:0" json:"shipping_cost"`
	ExchangeRate       decimal.Decimal                  `gorm:"type:decimal(14,4);not null;default:1" json:"exchange_rate"`
	AmountMinor        int64                            `gorm:"not null" json:"amount_minor"`
	Currency           string                           `gorm:"type:varchar(8);not null" json:"currency"`
	PaymentProvider    string                           `gorm:"type:varchar(20);not null;index" json:"payment_provider"`
	IntegritySignature string                           `gorm:"type:char(64);default:''" json:"-"`
	PaymentStatus      string                           `gorm:"type:varchar(32);not null;default:'awaiting_payment'" json:"payment_status"`
	CreatedAt          time.Time                        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time                        `gorm:"autoUpdateTime" json:"updated_at"`
}

// Details returns the decoded order snapshot.
func (p *PendingOrder) Details() OrderDetails {
	return p.OrderDetails.Data()
}

// HasDiscount reports whether a discount code was applied with a positive amount.
func (p *PendingOrder) HasDiscount() bool {
	return p.DiscountCodeID != nil && *p.DiscountCodeID != "" && p.DiscountAmount.IsPositive()
}
