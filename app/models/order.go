package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Order is the durable, paid order. Exactly one row exists per
// (payment_provider, provider_transaction_id).
type Order struct {
	ID                    uint                             `gorm:"primaryKey" json:"id"`
	OrderRef              string                           `gorm:"type:varchar(64);not null;index" json:"order_ref"`
	UserID                *string                          `gorm:"type:varchar(64);index" json:"user_id,omitempty"`
	CustomerID            string                           `gorm:"type:varchar(100);not null;index" json:"customer_id"`
	PaymentProvider       string                           `gorm:"type:varchar(20);not null;index:ux_orders_provider_tx,unique,priority:1" json:"payment_provider"`
	ProviderTransactionID string                           `gorm:"type:varchar(191);not null;index:ux_orders_provider_tx,unique,priority:2" json:"provider_transaction_id"`
	Total                 decimal.Decimal                  `gorm:"type:decimal(14,2);not null" json:"total"`
	Currency              string                           `gorm:"type:varchar(8);not null" json:"currency"`
	PaymentMethod         string                           `gorm:"type:varchar(50);default:''" json:"payment_method"`
	Status                string                           `gorm:"type:varchar(32);not null;default:'completed'" json:"status"`
	DiscountCodeID        *string                          `gorm:"type:varchar(64)" json:"discount_code_id,omitempty"`
	DiscountAmount        decimal.Decimal                  `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	OrderDetails          datatypes.JSONType[OrderDetails] `json:"order_details"`
	Items                 []OrderItem                      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt             time.Time                        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time                        `gorm:"autoUpdateTime" json:"updated_at"`
}

// OrderItem is a denormalized snapshot of one purchased product.
type OrderItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	OrderID      uint            `gorm:"not null;index" json:"order_id"`
	ProductID    string          `gorm:"type:varchar(64);not null;index" json:"product_id"`
	ProductName  string          `gorm:"type:varchar(200);not null" json:"product_name"`
	ProductSlug  string          `gorm:"type:varchar(200);default:''" json:"product_slug"`
	ImageURL     string          `gorm:"type:varchar(500);default:''" json:"image_url"`
	Category     string          `gorm:"type:varchar(100);default:''" json:"category"`
	Size         string          `gorm:"type:varchar(20);default:''" json:"size"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	BasePrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"base_price"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	CustomName   string          `gorm:"type:varchar(30);default:''" json:"custom_name"`
	CustomNumber string          `gorm:"type:varchar(3);default:''" json:"custom_number"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
