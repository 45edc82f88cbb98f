package entity

import "github.com/shopspring/decimal"

// Side is the direction of an order or a position.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Sign returns +1 for the long (buy) side and -1 for the short side,
// matching the matcher's PnL convention.
func (s Side) Sign() decimal.Decimal {
	if s == SideBuy {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(-1)
}
