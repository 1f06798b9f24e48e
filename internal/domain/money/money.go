// Package money implements the fixed-scale decimal amount type used across
// the ledger. Account amounts are carried at scale 2 and rates (depreciation,
// tax) at scale 4; mixing scales without an explicit rescale is an error so
// that rounding always happens at a single, visible point.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// AmountScale is the scale used for account and entry amounts.
	AmountScale int32 = 2
	// RateScale is the scale used for stored rates (e.g. 0.2500 for 25%).
	RateScale int32 = 4
)

// ErrScaleMismatch indicates an arithmetic operation across incompatible scales
type ErrScaleMismatch struct {
	Left  int32
	Right int32
}

func (e ErrScaleMismatch) Error() string {
	return fmt.Sprintf("scale mismatch: %d vs %d", e.Left, e.Right)
}

// Is implements the errors.Is interface for ErrScaleMismatch
func (e ErrScaleMismatch) Is(target error) bool {
	_, ok := target.(ErrScaleMismatch)
	return ok
}

// Money is an exact decimal value pinned to a fixed scale. The zero value is
// zero at scale 0; use Zero(scale) when accumulating amounts.
type Money struct {
	value decimal.Decimal
	scale int32
}

// New creates a Money from minor units at the given scale
// (e.g. New(150000, 2) is 1500.00).
func New(units int64, scale int32) Money {
	return Money{value: decimal.New(units, -scale), scale: scale}
}

// FromDecimal pins a decimal to the given scale, rounding half-up if needed.
func FromDecimal(d decimal.Decimal, scale int32) Money {
	return Money{value: roundHalfUp(d, scale), scale: scale}
}

// FromString parses a decimal string and pins it to the given scale.
func FromString(s string, scale int32) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return FromDecimal(d, scale), nil
}

// Zero returns the zero amount at the given scale.
func Zero(scale int32) Money {
	return Money{value: decimal.Zero, scale: scale}
}

// Scale returns the fixed scale of the value.
func (m Money) Scale() int32 {
	return m.scale
}

// Decimal exposes the underlying exact decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.value
}

// Add returns m + o, failing on mismatched scales.
func (m Money) Add(o Money) (Money, error) {
	if m.scale != o.scale {
		return Money{}, ErrScaleMismatch{Left: m.scale, Right: o.scale}
	}
	return Money{value: m.value.Add(o.value), scale: m.scale}, nil
}

// Sub returns m - o, failing on mismatched scales.
func (m Money) Sub(o Money) (Money, error) {
	if m.scale != o.scale {
		return Money{}, ErrScaleMismatch{Left: m.scale, Right: o.scale}
	}
	return Money{value: m.value.Sub(o.value), scale: m.scale}, nil
}

// Neg returns the negated amount at the same scale.
func (m Money) Neg() Money {
	return Money{value: m.value.Neg(), scale: m.scale}
}

// MulRate multiplies by a rate and rounds half-up back to m's scale. This is
// the single rounding rule for tax and depreciation computations; the rate may
// carry a different scale by design.
func (m Money) MulRate(rate Money) Money {
	return Money{value: roundHalfUp(m.value.Mul(rate.value), m.scale), scale: m.scale}
}

// DivInt divides by an integer and rounds half-up at m's scale.
func (m Money) DivInt(n int64) Money {
	q := m.value.Div(decimal.NewFromInt(n))
	return Money{value: roundHalfUp(q, m.scale), scale: m.scale}
}

// MulFrac multiplies by the exact fraction num/den and rounds half-up at m's
// scale (used for units-of-production allocation).
func (m Money) MulFrac(num, den int64) Money {
	q := m.value.Mul(decimal.NewFromInt(num)).Div(decimal.NewFromInt(den))
	return Money{value: roundHalfUp(q, m.scale), scale: m.scale}
}

// Cmp compares two amounts (-1, 0, 1), failing on mismatched scales.
func (m Money) Cmp(o Money) (int, error) {
	if m.scale != o.scale {
		return 0, ErrScaleMismatch{Left: m.scale, Right: o.scale}
	}
	return m.value.Cmp(o.value), nil
}

// Equal reports exact equality; amounts at different scales are never equal.
func (m Money) Equal(o Money) bool {
	return m.scale == o.scale && m.value.Equal(o.value)
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.value.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.value.IsNegative()
}

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool {
	return m.value.IsPositive()
}

// Rescale is the explicit step for moving an amount to another scale,
// rounding half-up when the target scale is coarser.
func (m Money) Rescale(scale int32) Money {
	return Money{value: roundHalfUp(m.value, scale), scale: scale}
}

// StringFixed renders the amount with exactly its scale's decimal places.
func (m Money) StringFixed() string {
	return m.value.StringFixed(m.scale)
}

func (m Money) String() string {
	return m.StringFixed()
}

var half = decimal.New(5, -1)

// roundHalfUp rounds to the given number of decimal places with ties going
// toward positive infinity: floor(x*10^s + 1/2) / 10^s.
func roundHalfUp(d decimal.Decimal, scale int32) decimal.Decimal {
	return d.Shift(scale).Add(half).Floor().Shift(-scale)
}
