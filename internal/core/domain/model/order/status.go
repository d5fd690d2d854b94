package order

import (
	"fmt"

	"ordering/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
//
// State transitions:
//
//	Placed ──> Accepted ──> Completed
//	  │           │
//	  └───────────┴──> Cancelled
type Status int

const (
	// Unknown (0) catches uninitialized Status values.
	Unknown Status = iota

	// Placed is the initial status of every order.
	Placed

	// Accepted indicates the order was confirmed, typically after payment.
	Accepted

	// Cancelled is terminal.
	Cancelled

	// Completed is terminal.
	Completed
)

const (
	operationAccept   = "accept"
	operationCancel   = "cancel"
	operationComplete = "complete"
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "Unknown",
		Placed:    "Placed",
		Accepted:  "Accepted",
		Cancelled: "Cancelled",
		Completed: "Completed",
	}
}

func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[Status]string{
		Placed:    "Placed",
		Accepted:  "Accepted",
		Cancelled: "Cancelled",
		Completed: "Completed",
	}
}

// ParseStatus converts the persisted name of a status back to a Status.
func ParseStatus(s string) (Status, error) {
	for status, name := range getValidStatusStrings() {
		if name == s {
			return status, nil
		}
	}

	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

// Validate checks that the status is one of Placed, Accepted, Cancelled or Completed.
func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String implements fmt.Stringer. Invalid values render as "Unknown".
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// IsTerminal reports whether no further transitions exist from s.
func (s Status) IsTerminal() bool {
	return s == Cancelled || s == Completed
}

// Accept transitions Placed -> Accepted.
func (s Status) Accept() (Status, error) {
	if s != Placed {
		return Unknown, errs.NewInvalidStateError(operationAccept, s.String())
	}

	return Accepted, nil
}

// Cancel transitions Placed or Accepted -> Cancelled.
func (s Status) Cancel() (Status, error) {
	if s != Placed && s != Accepted {
		return Unknown, errs.NewInvalidStateError(operationCancel, s.String())
	}

	return Cancelled, nil
}

// Complete transitions Accepted -> Completed.
func (s Status) Complete() (Status, error) {
	if s != Accepted {
		return Unknown, errs.NewInvalidStateError(operationComplete, s.String())
	}

	return Completed, nil
}
