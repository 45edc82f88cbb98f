package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatcherState reports whether the matcher accepts orders.
type MatcherState string

const (
	MatcherStateActive MatcherState = "active"
	MatcherStateHalted MatcherState = "halted"
)

// Fees holds the exchange-wide fee rates.
type Fees struct {
	Maker decimal.Decimal `json:"maker"`
	Taker decimal.Decimal `json:"taker"`
}

// MarketInfo is the matcher state plus fee configuration, fetched once and
// cached by consumers that need fee-aware margin math.
type MarketInfo struct {
	State     MatcherState `json:"state"`
	Fees      Fees         `json:"fees"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// MatcherUpdateEvent is pushed on the matcher channel.
type MatcherUpdateEvent struct {
	State     MatcherState `json:"state"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// PriceLevel is one side level of the order book.
type PriceLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// MarketDepth is an order book snapshot; T orders snapshots per instrument.
type MarketDepth struct {
	Instrument string       `json:"instrument"`
	T          int64        `json:"t"`
	Asks       []PriceLevel `json:"asks"`
	Bids       []PriceLevel `json:"bids"`
}

// MarketDepthQuery requests an order book snapshot.
type MarketDepthQuery struct {
	Instrument string `json:"instrument"`
	MaxLevel   int    `json:"maxLevel,omitempty"`
	RoundPrice string `json:"roundPrice,omitempty"`
}

// RecentTrade is a public trade print.
type RecentTrade struct {
	ID         string          `json:"id"`
	Instrument string          `json:"instrument"`
	Side       Side            `json:"side"`
	Price      decimal.Decimal `json:"price"`
	Quantity   decimal.Decimal `json:"quantity"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// TradesQuery requests recent trades for one instrument.
type TradesQuery struct {
	Instrument string `json:"instrument"`
	Limit      int    `json:"limit,omitempty"`
}

// Coin is a currency with its last known price.
type Coin struct {
	Name      string          `json:"name"`
	LastPrice decimal.Decimal `json:"lastPrice"`
}

// ListOf is the envelope the exchange wraps list responses in.
type ListOf[T any] struct {
	List []T `json:"list"`
}

// AvailableBalance is the server-computed free collateral, used for
// parity checks against the locally derived number.
type AvailableBalance struct {
	Funding          decimal.Decimal `json:"funding"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
}

// PowerData is the server-computed buy/sell power, used for parity checks
// against the locally derived numbers.
type PowerData struct {
	Buy  decimal.Decimal `json:"buy"`
	Sell decimal.Decimal `json:"sell"`
}

// PowerQuery requests server-side power for one instrument.
type PowerQuery struct {
	Instrument string `json:"instrument"`
}
