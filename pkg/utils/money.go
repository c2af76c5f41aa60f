package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds a money amount to cents, half away from zero.
// Non-finite input is returned unchanged.
func Round2(x float64) float64 {
	return RoundTo(x, 2)
}

// RoundTo rounds x to the given number of decimal places.
func RoundTo(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// SafeDiv returns a/b, or 0 when b is zero or the result is not finite.
func SafeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	q := a / b
	if !IsFinite(q) {
		return 0
	}
	return q
}
