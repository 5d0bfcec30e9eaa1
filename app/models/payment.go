package models

// Payment provider constants used across order-related models.
const (
	PaymentProviderBold   = "bold"
	PaymentProviderPayPal = "paypal"
	PaymentProviderWompi  = "wompi"
)

// Payment status annotations stored on pending orders. Terminal success is
// not represented here: a paid pending order is deleted and replaced by an
// Order row.
const (
	PaymentStatusAwaiting = "awaiting_payment"
	PaymentStatusPending  = "pending"
	PaymentStatusDeclined = "declined"
	PaymentStatusVoided   = "voided"
	PaymentStatusError    = "error"
)

const OrderStatusCompleted = "completed"

// IsKnownPaymentProvider reports whether p is one of the supported gateways.
func IsKnownPaymentProvider(p string) bool {
	switch p {
	case PaymentProviderBold, PaymentProviderPayPal, PaymentProviderWompi:
		return true
	default:
		return false
	}
}
