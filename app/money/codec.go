package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// tax rates travel as percentages with two implied decimals, 25% -> 2500
const taxRateExponent = 2

var (
	maxMinor = decimal.NewFromInt(math.MaxInt32)
	minMinor = decimal.NewFromInt(math.MinInt32)
)

// ToMinorUnits scales amount to the currency's minor unit, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal, cur Currency) (int64, error) {
	return scale(amount, cur.Exponent)
}

func ToNonNegativeMinorUnits(amount decimal.Decimal, cur Currency) (int64, error) {
	if amount.IsNegative() {
		return 0, ErrInvalidAmount
	}
	return scale(amount, cur.Exponent)
}

func FromMinorUnits(minor int64, cur Currency) decimal.Decimal {
	return decimal.New(minor, -cur.Exponent)
}

// TaxRateToMinor converts a percentage (25 for 25%) to the gateway's integer tax-rate form.
func TaxRateToMinor(percent decimal.Decimal) (int64, error) {
	return scale(percent, taxRateExponent)
}

func scale(amount decimal.Decimal, exponent int32) (int64, error) {
	scaled := amount.Shift(exponent).Round(0)
	if scaled.GreaterThan(maxMinor) || scaled.LessThan(minMinor) {
		return 0, ErrInvalidAmount
	}
	return scaled.IntPart(), nil
}
