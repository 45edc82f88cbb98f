package balance

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/evedex/exchange-sdk-go/entity"
)

// OrderAggregate is the unfilled volume of all resting orders grouped by
// instrument and side. Volume carries limit-order notional, CashVolume
// carries market-order cash quantity.
type OrderAggregate struct {
	Instrument string          `json:"instrument"`
	Side       entity.Side     `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
	Volume     decimal.Decimal `json:"volume"`
	CashVolume decimal.Decimal `json:"cashVolume"`
}

// Notional is the full unfilled notional of the aggregate.
func (a OrderAggregate) Notional() decimal.Decimal {
	return a.Volume.Add(a.CashVolume)
}

// AvailableBalanceData is the available-balance result plus the
// intermediate views margin UIs consume.
type AvailableBalanceData struct {
	Funding          decimal.Decimal         `json:"funding"`
	PendingWithdraw  decimal.Decimal         `json:"pendingWithdraw"`
	Lock             decimal.Decimal         `json:"lock"`
	NegativePnL      decimal.Decimal         `json:"negativePnL"`
	AvailableBalance decimal.Decimal         `json:"availableBalance"`
	Positions        []entity.PositionMargin `json:"positions"`
	OpenOrders       []OrderAggregate        `json:"openOrders"`
}

type aggregateKey struct {
	instrument string
	side       entity.Side
}

func (b *Balance) orderAggregates() map[aggregateKey]OrderAggregate {
	out := make(map[aggregateKey]OrderAggregate)
	for _, o := range b.orders.List() {
		key := aggregateKey{instrument: o.Instrument, side: o.Side}
		agg, ok := out[key]
		if !ok {
			agg = OrderAggregate{Instrument: o.Instrument, Side: o.Side}
		}
		if o.Type == entity.OrderTypeMarket {
			agg.CashVolume = agg.CashVolume.Add(o.CashQuantity)
		} else {
			agg.Quantity = agg.Quantity.Add(o.UnFilledQuantity)
			agg.Volume = agg.Volume.Add(o.UnFilledQuantity.Mul(o.LimitPrice))
		}
		out[key] = agg
	}
	return out
}

func maxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// AvailableBalance derives free collateral from the current store
// contents. It never fails: missing data degrades to conservative zero
// defaults.
//
// Per position the locked margin is the greater of initial margin plus
// the same-side unfilled margin, or the absolute difference of initial
// margin and the opposite-side unfilled margin. Only negative
// unrealized PnL reduces the balance; profit never raises it.
func (b *Balance) AvailableBalance() AvailableBalanceData {
	funding := decimal.Zero
	if f, ok := b.fundings.Get(entity.CollateralUSDT); ok {
		funding = f.Quantity
	}

	pending := decimal.Zero
	for _, t := range b.transfers.List() {
		if t.Type == entity.TransferTypeFuturesToBalance && t.Status == entity.TransferStatusPending {
			pending = pending.Add(t.Amount)
		}
	}

	aggregates := b.orderAggregates()

	lock := decimal.Zero
	negativePnL := decimal.Zero
	positions := b.positions.List()
	margins := make([]entity.PositionMargin, 0, len(positions))
	for _, p := range positions {
		leverage := p.EffectiveLeverage()
		initialMargin := p.InitialMargin()

		sameSide := aggregates[aggregateKey{instrument: p.Instrument, side: p.Side}].Notional().Div(leverage)
		oppositeSide := aggregates[aggregateKey{instrument: p.Instrument, side: p.Side.Opposite()}].Notional().Div(leverage)

		positionLock := decimal.Max(
			initialMargin.Add(sameSide),
			initialMargin.Sub(oppositeSide).Abs(),
		)
		lock = lock.Add(positionLock)

		mark := decimal.Zero
		if mp, ok := b.marks.Get(p.Instrument); ok {
			mark = mp.MarkPrice
		}
		if pnl := p.UnrealizedPnL(mark); pnl.IsNegative() {
			negativePnL = negativePnL.Add(pnl)
		}

		margins = append(margins, entity.PositionMargin{
			Instrument:    p.Instrument,
			Side:          p.Side,
			Quantity:      p.Quantity,
			AvgPrice:      p.AvgPrice,
			Leverage:      leverage,
			Volume:        p.Notional(),
			InitialMargin: initialMargin,
		})
	}

	openOrders := make([]OrderAggregate, 0, len(aggregates))
	for _, agg := range aggregates {
		if agg.Notional().IsPositive() {
			openOrders = append(openOrders, agg)
		}
	}
	sort.Slice(openOrders, func(i, j int) bool {
		if openOrders[i].Instrument != openOrders[j].Instrument {
			return openOrders[i].Instrument < openOrders[j].Instrument
		}
		return openOrders[i].Side < openOrders[j].Side
	})
	sort.Slice(margins, func(i, j int) bool {
		return margins[i].Instrument < margins[j].Instrument
	})

	available := maxZero(funding.Sub(pending).Sub(lock).Add(negativePnL))

	return AvailableBalanceData{
		Funding:          funding,
		PendingWithdraw:  pending,
		Lock:             entity.MatcherRound(lock),
		NegativePnL:      negativePnL,
		AvailableBalance: entity.MatcherRound(available),
		Positions:        margins,
		OpenOrders:       openOrders,
	}
}

// Power computes the maximum additional notional openable per side of
// one instrument before margin is exhausted. Without a position the
// instrument defaults to a flat long with leverage 1, which makes both
// sides symmetric.
func (b *Balance) Power(instrument string) entity.PowerData {
	available := b.AvailableBalance().AvailableBalance
	taker := b.Fees().Taker

	position, ok := b.positions.Get(instrument)
	if !ok {
		position = entity.Position{
			Instrument: instrument,
			Side:       entity.SideBuy,
			Quantity:   decimal.Zero,
			Leverage:   decimal.NewFromInt(1),
		}
	}
	leverage := position.EffectiveLeverage()
	feeMultiplier := decimal.NewFromInt(1).Add(leverage.Mul(taker))

	opposite := b.orderAggregates()[aggregateKey{
		instrument: instrument,
		side:       position.Side.Opposite(),
	}]

	mark := decimal.Zero
	if mp, ok := b.marks.Get(instrument); ok {
		mark = mp.MarkPrice
	}

	// closeVolume is the notional still closable against the position at
	// the given price after opposite-side orders consumed their share.
	closeVolume := func(price decimal.Decimal) decimal.Decimal {
		return maxZero(position.Quantity.Mul(price).Sub(opposite.Volume).Sub(opposite.CashVolume))
	}
	closeAtMark := closeVolume(mark)
	closeAtEntry := closeVolume(position.AvgPrice)

	oppositePower := closeAtMark.Add(
		maxZero(available.Sub(closeAtMark.Mul(taker)).Mul(leverage).Add(closeAtEntry)).Div(feeMultiplier),
	)
	samePower := maxZero(available.Mul(leverage)).Div(feeMultiplier)

	var buy, sell decimal.Decimal
	if position.Side == entity.SideBuy {
		buy, sell = samePower, oppositePower
	} else {
		buy, sell = oppositePower, samePower
	}
	return entity.PowerData{
		Buy:  entity.MatcherRound(buy),
		Sell: entity.MatcherRound(sell),
	}
}
