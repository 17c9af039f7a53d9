// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from operator
// input and formatting them for display.
package core

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// MaxAmountCents bounds a single operator-entered amount.
const MaxAmountCents int64 = 1_000_000_000_000_000

// MaxTotalCents bounds every running total (income, category totals, total
// expenses, budget). Differences of two bounded totals fit in an int64.
const MaxTotalCents int64 = 1_000_000_000_000_000_000

var (
	maxAmount = decimal.NewFromInt(MaxAmountCents)
	maxTotal  = decimal.NewFromInt(MaxTotalCents)
)

// ParseAmount converts operator input to Money.
//
// Any decimal number is accepted, signed or not, and rounded half away from
// zero to whole cents. Text that is not a finite number returns ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234
//	ParseAmount("12.345") -> 1235
//	ParseAmount("-5")     -> -500
//	ParseAmount("abc")    -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	return parseCents(s, maxAmount)
}

func parseCents(s string, limit decimal.Decimal) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}
	cents := d.Shift(2).Round(0)
	if cents.Abs().GreaterThan(limit) {
		return Money{}, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, s)
	}
	return Money{Cents: cents.IntPart()}, nil
}

// Decimal returns the value in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Add returns m + o. Callers that grow a running total use CheckedAdd;
// sums of in-range totals wrap back to the exact value.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// CheckedAdd returns m + o, or ErrInvalidAmount when the result would leave
// the ±MaxTotalCents range.
func (m Money) CheckedAdd(o Money) (Money, error) {
	sum := m.Cents + o.Cents
	if (o.Cents > 0 && sum < m.Cents) || (o.Cents < 0 && sum > m.Cents) ||
		sum > MaxTotalCents || sum < -MaxTotalCents {
		return Money{}, fmt.Errorf("%w: total out of range", ErrInvalidAmount)
	}
	return Money{Cents: sum}, nil
}

// InTotalRange reports whether m may be stored as a running total.
func (m Money) InTotalRange() bool {
	return m.Cents <= MaxTotalCents && m.Cents >= -MaxTotalCents
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// String renders the amount with two decimals and no grouping ("1234.50").
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// FormatCurrency renders m as "$" + thousands-grouped value with exactly two
// decimals, e.g. 1234.5 -> "$1,234.50" and -20 -> "-$20.00".
func FormatCurrency(m Money) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%s.%02d", sign, humanize.Comma(cents/100), cents%100)
}

// MarshalJSON writes the amount as a bare JSON number (50, 1234.5).
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	parsed, err := parseCents(string(data), maxTotal)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
