package models

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
	// Cent is the smallest currency unit.
	Cent = decimal.New(1, -2)
)

// RoundHalfUp rounds d to cents as floor(d*100 + 0.5)/100. Tax uses this rule
// rather than banker's rounding.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Mul(hundred).Add(half).Floor().Div(hundred)
}

// RoundCents rounds d to two decimal places, half away from zero.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Cents returns d as a whole number of cents, truncating any fraction.
func Cents(d decimal.Decimal) int64 {
	return d.Mul(hundred).IntPart()
}

// FromCents converts a cent count back to a decimal amount.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}
