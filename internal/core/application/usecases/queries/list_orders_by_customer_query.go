package queries

import (
	"errors"
	"time"

	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/pkg/errs"
	"ordering/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

var (
	ErrListOrdersByCustomerQueryIsNotConstructed = errors.New(
		"ListOrdersByCustomerQuery must be created via NewListOrdersByCustomerQuery constructor",
	)
)

// ListOrdersByCustomerQuery pages through a customer's orders, newest first.
// A zero limit means DefaultListLimit.
type ListOrdersByCustomerQuery struct {
	customerID kernel.UUID
	limit      int
	offset     int
	guard      guard.ConstructorGuard
}

// NewListOrdersByCustomerQuery validates the paging window.
func NewListOrdersByCustomerQuery(customerID kernel.UUID, limit, offset int) (ListOrdersByCustomerQuery, error) {
	if limit == 0 {
		limit = DefaultListLimit
	}

	var validationErrs []error
	if err := customerID.Validate(); err != nil {
		validationErrs = append(validationErrs, errs.NewValueIsRequiredErrorWithCause("customerID", err))
	}
	if limit < 1 || limit > MaxListLimit {
		validationErrs = append(validationErrs, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxListLimit))
	}
	if offset < 0 {
		validationErrs = append(validationErrs, errs.NewValueIsInvalidError("offset"))
	}
	if len(validationErrs) > 0 {
		return ListOrdersByCustomerQuery{}, errors.Join(validationErrs...)
	}

	return ListOrdersByCustomerQuery{
		customerID: customerID,
		limit:      limit,
		offset:     offset,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (q ListOrdersByCustomerQuery) CustomerID() kernel.UUID {
	return q.customerID
}

func (q ListOrdersByCustomerQuery) Limit() int {
	return q.limit
}

func (q ListOrdersByCustomerQuery) Offset() int {
	return q.offset
}

// Validate ensures the query was created through the constructor.
func (q ListOrdersByCustomerQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersByCustomerQueryIsNotConstructed)
}

// OrderSummary is one row of a customer's order list.
type OrderSummary struct {
	ID       kernel.UUID
	Status   string
	Total    decimal.Decimal
	Currency string
	PlacedAt time.Time
}
