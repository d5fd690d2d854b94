package order

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/pkg/errs"
	"ordering/internal/pkg/guard"
)

// MaxSKULength bounds the SKU of a line, in characters.
const MaxSKULength = 64

// ErrOrderLineIsNotConstructed is returned for an OrderLine not created via NewOrderLine.
var ErrOrderLineIsNotConstructed = errs.NewValueIsRequiredError("OrderLine must be created via NewOrderLine constructor")

// OrderLine is one product position of an order. It is immutable.
type OrderLine struct {
	sku       string
	quantity  int
	unitPrice kernel.Money

	guard guard.ConstructorGuard
}

// NewOrderLine validates and creates a line.
//
// Rules:
//   - sku is trimmed, must not be blank and must be at most MaxSKULength characters
//   - quantity must be at least 1
//   - unitPrice must be a constructed, strictly positive Money
func NewOrderLine(sku string, quantity int, unitPrice kernel.Money) (OrderLine, error) {
	line := OrderLine{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		line.setSKU(sku),
		line.setQuantity(quantity),
		line.setUnitPrice(unitPrice),
	); err != nil {
		return OrderLine{}, err
	}

	return line, nil
}

// Validate ensures the line was created through NewOrderLine.
func (l OrderLine) Validate() error {
	return l.guard.Validate(ErrOrderLineIsNotConstructed)
}

// SKU returns the stock keeping unit.
func (l OrderLine) SKU() string {
	return l.sku
}

// Quantity returns the number of units ordered.
func (l OrderLine) Quantity() int {
	return l.quantity
}

// UnitPrice returns the price of a single unit.
func (l OrderLine) UnitPrice() kernel.Money {
	return l.unitPrice
}

// Total returns quantity × unit price.
func (l OrderLine) Total() kernel.Money {
	return l.unitPrice.MultiplyBy(l.quantity)
}

func (l *OrderLine) setSKU(sku string) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return errs.NewValueIsRequiredError("sku")
	}

	if length := utf8.RuneCountInString(sku); length > MaxSKULength {
		return errs.NewValueIsOutOfRangeError("sku length", length, 1, MaxSKULength)
	}

	l.sku = sku
	return nil
}

func (l *OrderLine) setQuantity(quantity int) error {
	if quantity < 1 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is less than 1", quantity))
	}

	l.quantity = quantity
	return nil
}

func (l *OrderLine) setUnitPrice(unitPrice kernel.Money) error {
	if err := unitPrice.Validate(); err != nil {
		return err
	}

	if !unitPrice.IsPositive() {
		return errs.NewValueIsInvalidErrorWithCause("unit price", fmt.Errorf("%s is not greater than 0", unitPrice))
	}

	l.unitPrice = unitPrice
	return nil
}
