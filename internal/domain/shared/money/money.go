package money

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
)

// BasisPointScale is the fixed-point scale used for multipliers: 10000 = 1.0.
const BasisPointScale int64 = 10_000

// Money keeps amounts in integer minor units (cents) to avoid floating point issues.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// New constructs a Money value validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	currency = strings.ToUpper(currency)
	return Money{Amount: amount, Currency: currency}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return Money{Currency: strings.ToUpper(currency)}
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sub subtracts other from the receiver.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// Multiply multiplies the amount by the provided factor.
func (m Money) Multiply(times int64) Money {
	return Money{Amount: m.Amount * times, Currency: m.Currency}
}

// ApplyRate scales the amount by basisPoints/BasisPointScale and rounds half up
// to a multiple of unit minor units (unit 1 = cents, 100 = whole currency units).
// Amounts are expected to be non-negative.
func (m Money) ApplyRate(basisPoints int64, unit int64) Money {
	if unit <= 0 {
		unit = 1
	}
	divisor := BasisPointScale * unit
	scaled := m.Amount * basisPoints
	units := (scaled + divisor/2) / divisor
	return Money{Amount: units * unit, Currency: m.Currency}
}

// IsZero returns true if the amount equals zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// Format renders the amount with two decimals followed by the currency code, e.g. "541.00 EUR".
func (m Money) Format() string {
	sign := ""
	amount := m.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, m.Currency)
}

func (m Money) String() string {
	return m.Format()
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}

// FromMajor converts a decimal major-unit amount (e.g. 4.10) into minor units,
// rounding half away from zero. Only used at configuration boundaries.
func FromMajor(amount float64, currency string) (Money, error) {
	cents := amount * 100
	var minor int64
	if cents >= 0 {
		minor = int64(cents + 0.5)
	} else {
		minor = int64(cents - 0.5)
	}
	return New(minor, currency)
}
