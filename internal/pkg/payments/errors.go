package payments

import "errors"

var (
	// ErrAuthenticationFailed means the delivery could not be proven to come
	// from the gateway. Nothing may be written for such a delivery.
	ErrAuthenticationFailed = errors.New("webhook authentication failed")
	// ErrMalformedPayload means the body is not the shape the gateway documents.
	ErrMalformedPayload = errors.New("malformed webhook payload")
	// ErrAmountMismatch means the gateway-reported charge differs from the
	// charge bound to the pending order.
	ErrAmountMismatch = errors.New("payment amount does not match pending order")
)
