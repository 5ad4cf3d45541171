// Package money provides fixed-point helpers for amounts held as integer
// cents. All persisted and returned monetary values in the engine are int64
// cents in the smallest currency unit; decimal arithmetic is confined to
// intermediate calculations.
package money

import "github.com/shopspring/decimal"

const bpsDenominator = 10_000

// RoundHalfUpCents rounds a decimal amount of cents to the nearest whole
// cent, with halves rounding away from zero.
func RoundHalfUpCents(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// MulRateBps applies a basis-point rate to an amount of cents, rounding
// half-up. 1 bps = 1/100th of a percent.
func MulRateBps(amountCents int64, rateBps int64) int64 {
	return RoundHalfUpCents(
		decimal.NewFromInt(amountCents).
			Mul(decimal.NewFromInt(rateBps)).
			Div(decimal.NewFromInt(bpsDenominator)),
	)
}

// SpreadEvenCents splits totalCents into n shares that sum to totalCents
// exactly and differ from each other by at most one cent: every share gets
// totalCents/n, and the last totalCents%n shares carry one extra cent each.
func SpreadEvenCents(totalCents int64, n int) []int64 {
	if n <= 0 {
		panic("money: SpreadEvenCents requires n > 0")
	}
	base := totalCents / int64(n)
	rem := int(totalCents % int64(n))
	shares := make([]int64, n)
	for i := range shares {
		shares[i] = base
		if i >= n-rem {
			shares[i]++
		}
	}
	return shares
}
