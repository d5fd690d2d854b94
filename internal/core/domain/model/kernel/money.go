package kernel

import (
	"errors"
	"fmt"
	"regexp"

	"ordering/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var (
	// ErrMoneyIsNotConstructed is returned when validating a zero-value Money.
	ErrMoneyIsNotConstructed = errs.NewValueIsRequiredError("Money must be created via NewMoney or ZeroMoney")

	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

// Money is an exact decimal amount in a single currency.
//
// Arithmetic is only defined between equal currencies; mixing currencies is a
// validation failure, never a silent conversion.
//
// Example:
//
//	price, _ := kernel.NewMoney(decimal.RequireFromString("100.00"), "ZAR")
//	lineTotal := price.MultiplyBy(2)          // 200.00 ZAR
//	total, err := lineTotal.Add(otherLine)    // fails if otherLine is not ZAR
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney creates a Money value. The amount must not be negative and the
// currency must be a three-letter upper-case code such as "ZAR" or "USD".
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	var m Money
	if err := errors.Join(
		m.setAmount(amount),
		m.setCurrency(currency),
	); err != nil {
		return Money{}, err
	}

	return m, nil
}

// ZeroMoney returns a zero amount in the given currency, the seed for folding
// a total.
func ZeroMoney(currency string) (Money, error) {
	return NewMoney(decimal.Zero, currency)
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the three-letter currency code.
func (m Money) Currency() string {
	return m.currency
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsEqual compares amount and currency. 100 and 100.00 are equal.
func (m Money) IsEqual(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// Add sums two amounts of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if err := errors.Join(m.Validate(), other.Validate()); err != nil {
		return Money{}, err
	}

	if m.currency != other.currency {
		return Money{}, errs.NewValueIsInvalidErrorWithCause(
			"currency",
			fmt.Errorf("%s does not match %s", other.currency, m.currency),
		)
	}

	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// MultiplyBy scales the amount by an integer quantity.
func (m Money) MultiplyBy(quantity int) Money {
	return Money{
		amount:   m.amount.Mul(decimal.NewFromInt(int64(quantity))),
		currency: m.currency,
	}
}

// String renders the amount with two decimals followed by the currency,
// e.g. "250.00 ZAR".
func (m Money) String() string {
	return m.amount.StringFixed(2) + " " + m.currency
}

// Validate returns ErrMoneyIsNotConstructed for the zero value.
func (m Money) Validate() error {
	if m.currency == "" {
		return ErrMoneyIsNotConstructed
	}
	return nil
}

func (m *Money) setAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errs.NewValueIsInvalidErrorWithCause("amount", fmt.Errorf("%s is negative", amount.String()))
	}

	m.amount = amount
	return nil
}

func (m *Money) setCurrency(currency string) error {
	if currency == "" {
		return errs.NewValueIsRequiredError("currency")
	}

	if !currencyPattern.MatchString(currency) {
		return errs.NewValueIsInvalidErrorWithCause(
			"currency",
			fmt.Errorf("%q is not a three-letter upper-case code", currency),
		)
	}

	m.currency = currency
	return nil
}
