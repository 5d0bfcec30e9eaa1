package payments

import (
	"github.com/ManuelReschke/ShopFox/app/models"
	"github.com/shopspring/decimal"
)

// EventStatus is the gateway-neutral meaning of a webhook event.
type EventStatus string

const (
	EventApproved EventStatus = "approved"
	EventPending  EventStatus = "pending"
	EventDeclined EventStatus = "declined"
	EventVoided   EventStatus = "voided"
	EventError    EventStatus = "error"
	// EventIgnored marks event types the reconciliation does not act on.
	EventIgnored EventStatus = "ignored"
)

// PaymentStatus maps a non-approved status to the annotation stored on the
// pending order. It returns "" for statuses that leave the order untouched.
func (s EventStatus) PaymentStatus() string {
	switch s {
	case EventPending:
		return models.PaymentStatusPending
	case EventDeclined:
		return models.PaymentStatusDeclined
	case EventVoided:
		return models.PaymentStatusVoided
	case EventError:
		return models.PaymentStatusError
	default:
		return ""
	}
}

// PaymentEvent is the provider-agnostic shape of a verified gateway event.
type PaymentEvent struct {
	Provider      string
	EventID       string
	EventType     string
	Status        EventStatus
	OrderRef      string
	TransactionID string
	// Amount is the provider-reported charge in major units of Currency.
	Amount        decimal.Decimal
	AmountMinor   int64
	Currency      string
	PaymentMethod string
	Raw           []byte
}

// Actionable reports whether the event changes any order state.
func (e *PaymentEvent) Actionable() bool {
	return e.Status != EventIgnored && e.OrderRef != ""
}
