package services

import (
	"ordering/internal/core/domain/model/order"
)

// DefaultPaymentFailureReason is used as cancellation reason when a failed
// payment carries none.
const DefaultPaymentFailureReason = "PaymentFailed"

// PaymentOutcome is the result of a payment attempt for an order.
type PaymentOutcome struct {
	succeeded  bool
	paymentRef string
	reason     string
}

// NewPaymentSucceeded describes a captured payment.
func NewPaymentSucceeded(paymentRef string) PaymentOutcome {
	return PaymentOutcome{succeeded: true, paymentRef: paymentRef}
}

// NewPaymentFailed describes a declined payment. A blank reason becomes
// DefaultPaymentFailureReason.
func NewPaymentFailed(reason string) PaymentOutcome {
	if reason == "" {
		reason = DefaultPaymentFailureReason
	}
	return PaymentOutcome{reason: reason}
}

// Succeeded reports whether the payment was captured.
func (p PaymentOutcome) Succeeded() bool {
	return p.succeeded
}

// PaymentRef returns the payment provider reference of a captured payment.
func (p PaymentOutcome) PaymentRef() string {
	return p.paymentRef
}

// Reason returns the failure reason of a declined payment.
func (p PaymentOutcome) Reason() string {
	return p.reason
}

// PaymentOutcomeApplier drives an order through its lifecycle from payment
// results.
//
// Business rules:
//   - a captured payment accepts a Placed order
//   - a declined payment cancels a Placed or Accepted order with the failure reason
//   - a result that was already applied is ignored, since payment events are
//     delivered at least once
//
// Any other combination is an invalid state transition.
type PaymentOutcomeApplier struct{}

// NewPaymentOutcomeApplier creates a PaymentOutcomeApplier.
func NewPaymentOutcomeApplier() PaymentOutcomeApplier {
	return PaymentOutcomeApplier{}
}

// Apply mutates the order according to the outcome. It reports whether the
// order changed; false means the outcome had already been applied.
func (a PaymentOutcomeApplier) Apply(o *order.Order, outcome PaymentOutcome) (bool, error) {
	if err := o.Validate(); err != nil {
		return false, err
	}

	if outcome.Succeeded() {
		if o.Status() == order.Accepted || o.Status() == order.Completed {
			return false, nil
		}
		return true, o.Accept()
	}

	if o.Status() == order.Cancelled {
		return false, nil
	}
	return true, o.Cancel(outcome.Reason())
}
