package orders

import (
	"errors"

	"github.com/ManuelReschke/ShopFox/app/models"
)

var (
	// ErrReferenceNotFound means no pending order exists for a paid
	// reference. It is surfaced so the gateway keeps redelivering until the
	// order is resolved by hand.
	ErrReferenceNotFound = errors.New("pending order not found for reference")
	// ErrDuplicateDelivery marks a transaction that already produced an order.
	// Callers treat it as success.
	ErrDuplicateDelivery = errors.New("duplicate delivery")
	// ErrDeliveryInFlight means another delivery of the same transaction
	// holds the delivery lock.
	ErrDeliveryInFlight = errors.New("delivery already in progress")
)

// State is the lifecycle position of one delivery.
type State string

const (
	StatePending    State = "PENDING"
	StateVerifying  State = "VERIFYING"
	StateFinalizing State = "FINALIZING"
	StateConfirmed  State = "CONFIRMED"
	StateRejected   State = "REJECTED"
	StateDuplicate  State = "DUPLICATE"
	StateIgnored    State = "IGNORED"
)

// Side-effect steps reported in Result.SideEffects.
const (
	StepDiscountLedger = "discount_ledger"
	StepNotifyPrefix   = "notify:"
)

// Outcome is the result of a step that must not fail the order.
type Outcome struct {
	Step    string
	Err     error
	Message string
}

// OK reports whether the step succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Result describes how a delivery was handled.
type Result struct {
	State       State
	OrderRef    string
	Order       *models.Order
	SideEffects []Outcome
}

// Failed returns the side effects that did not succeed.
func (r *Result) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.SideEffects {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}
