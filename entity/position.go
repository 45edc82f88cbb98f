package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is an open position as delivered by the positions bulk fetch
// and the positions push channel.
type Position struct {
	Instrument string          `json:"instrument"`
	Side       Side            `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
	AvgPrice   decimal.Decimal `json:"avgPrice"`
	Leverage   decimal.Decimal `json:"leverage"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Notional is quantity priced at the average entry price.
func (p Position) Notional() decimal.Decimal {
	return p.Quantity.Mul(p.AvgPrice)
}

// InitialMargin is the collateral reserved against the position,
// notional divided by leverage. Leverage below 1 is floored at 1.
func (p Position) InitialMargin() decimal.Decimal {
	return p.Notional().Div(p.EffectiveLeverage())
}

// EffectiveLeverage floors leverage at 1 so malformed records never
// divide by zero in margin math.
func (p Position) EffectiveLeverage() decimal.Decimal {
	one := decimal.NewFromInt(1)
	if p.Leverage.LessThan(one) {
		return one
	}
	return p.Leverage
}

// UnrealizedPnL marks the position to the given price:
// (mark - avg) * sign(side) * quantity. A zero mark price is treated as
// unknown and yields zero PnL.
func (p Position) UnrealizedPnL(markPrice decimal.Decimal) decimal.Decimal {
	if markPrice.IsZero() {
		return decimal.Zero
	}
	return markPrice.Sub(p.AvgPrice).Mul(p.Side.Sign()).Mul(p.Quantity)
}

// PositionUpdateQuery changes position parameters server-side (leverage).
type PositionUpdateQuery struct {
	Instrument string          `json:"instrument"`
	Leverage   decimal.Decimal `json:"leverage"`
}

// PositionMargin is a position enriched with derived margin numbers,
// returned as part of the available-balance artifact.
type PositionMargin struct {
	Instrument    string          `json:"instrument"`
	Side          Side            `json:"side"`
	Quantity      decimal.Decimal `json:"quantity"`
	AvgPrice      decimal.Decimal `json:"avgPrice"`
	Leverage      decimal.Decimal `json:"leverage"`
	Volume        decimal.Decimal `json:"volume"`
	InitialMargin decimal.Decimal `json:"initialMargin"`
}
