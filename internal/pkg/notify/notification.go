package notify

import (
	"github.com/ManuelReschke/ShopFox/app/models"
	"github.com/shopspring/decimal"
)

// OrderNotification is the payload both channels receive after an order
// was confirmed.
type OrderNotification struct {
	OrderID         uint                `json:"order_id"`
	OrderRef        string              `json:"order_ref"`
	PaymentProvider string              `json:"payment_provider"`
	PaymentMethod   string              `json:"payment_method"`
	Total           decimal.Decimal     `json:"total"`
	Currency        string              `json:"currency"`
	DiscountAmount  decimal.Decimal     `json:"discount_amount"`
	CustomerID      string              `json:"customer_id"`
	Customer        models.CustomerInfo `json:"customer"`
	Items           []models.OrderItem  `json:"items"`
}

// NewOrderNotification builds the payload from a stored order.
func NewOrderNotification(order *models.Order) *OrderNotification {
	return &OrderNotification{
		OrderID:         order.ID,
		OrderRef:        order.OrderRef,
		PaymentProvider: order.PaymentProvider,
		PaymentMethod:   order.PaymentMethod,
		Total:           order.Total,
		Currency:        order.Currency,
		DiscountAmount:  order.DiscountAmount,
		CustomerID:      order.CustomerID,
		Customer:        order.OrderDetails.Data().Customer,
		Items:           order.Items,
	}
}
