// Package money holds the decimal helpers shared by billing and deposits.
// Amounts are rupees with two decimal places.
package money

import (
	"github.com/shopspring/decimal"
)

const Scale = 2

var Zero = decimal.Zero

// Round rounds half away from zero to two decimal places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Mul multiplies quantity by unit price and rounds the result.
func Mul(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return Round(quantity.Mul(unitPrice))
}

func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return Round(total)
}

func IsNegative(d decimal.Decimal) bool {
	return d.Sign() < 0
}

func IsPositive(d decimal.Decimal) bool {
	return d.Sign() > 0
}

// FromInt is a convenience for fixtures and defaults.
func FromInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
