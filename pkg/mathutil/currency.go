// Package mathutil provides common mathematical utility functions for
// fixed-point currency values.
package mathutil

import (
	"fmt"
	"strings"

	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/shopspring/decimal"
)

// Rounder rounds a value to currency precision.
type Rounder func(decimal.Decimal) decimal.Decimal

var (
	// Cent is the smallest currency unit.
	Cent = decimal.New(1, -constants.CurrencyPlaces)

	percentDivisor = decimal.NewFromInt(constants.PercentageMultiplier)
)

// Round rounds a value to two decimals, half away from zero, i.e. to represent
// real currency.
func Round(val decimal.Decimal) decimal.Decimal {
	return val.Round(constants.CurrencyPlaces)
}

// RoundBankers rounds a value to two decimals, half to even.
func RoundBankers(val decimal.Decimal) decimal.Decimal {
	return val.RoundBank(constants.CurrencyPlaces)
}

// RounderFor returns the Rounder for a named rounding mode. An empty mode
// selects half-up rounding.
func RounderFor(mode string) (Rounder, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", constants.RoundingHalfUp, "halfup", "half_up":
		return Round, nil
	case constants.RoundingBankers, "banker", "half-even", "half_even":
		return RoundBankers, nil
	default:
		return nil, fmt.Errorf("unsupported rounding mode %q", mode)
	}
}

// PeriodicInterest returns the rounded interest accrued on balance for one
// period at the given annual percentage rate.
func PeriodicInterest(balance, annualRatePercent decimal.Decimal, periodsPerYear int, round Rounder) decimal.Decimal {
	if round == nil {
		round = Round
	}
	if periodsPerYear <= 0 {
		periodsPerYear = constants.MonthsPerYear
	}
	divisor := percentDivisor.Mul(decimal.NewFromInt(int64(periodsPerYear)))
	return round(balance.Mul(annualRatePercent).Div(divisor))
}

// IsZero checks if a value is zero at currency precision.
func IsZero(val decimal.Decimal) bool {
	return Round(val).IsZero()
}

// IsPositive checks if a value is at least one cent.
func IsPositive(val decimal.Decimal) bool {
	return Round(val).GreaterThanOrEqual(Cent)
}

// IsNegative checks if a value is at most minus one cent.
func IsNegative(val decimal.Decimal) bool {
	return Round(val).LessThanOrEqual(Cent.Neg())
}

// WithinTolerance checks if two values are within a specified tolerance.
func WithinTolerance(val1, val2, tolerance decimal.Decimal) bool {
	return val1.Sub(val2).Abs().LessThanOrEqual(tolerance)
}

// Min returns the minimum of two values.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the maximum of two values.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Cents converts a currency value to an integer number of cents.
func Cents(val decimal.Decimal) int64 {
	return Round(val).Shift(constants.CurrencyPlaces).IntPart()
}

// FromCents converts an integer number of cents to a currency value.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -constants.CurrencyPlaces)
}

// Sum adds all values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
