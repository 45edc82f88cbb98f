package entity

import "github.com/shopspring/decimal"

// matcherPrecision is the decimal precision the exchange matcher settles
// volumes and margins at (USDT collateral, 6 fractional digits).
const matcherPrecision = 6

// MatcherRound rounds a monetary quantity to the matcher's precision.
// Every accumulated volume that is compared against server-side accounting
// must pass through this rounding, otherwise balances drift at the last digit.
func MatcherRound(d decimal.Decimal) decimal.Decimal {
	return d.Round(matcherPrecision)
}
