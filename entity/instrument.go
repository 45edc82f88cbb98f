package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstrumentTrading is the trading availability of an instrument.
type InstrumentTrading string

const (
	InstrumentTradingEnabled  InstrumentTrading = "enabled"
	InstrumentTradingHalted   InstrumentTrading = "halted"
	InstrumentTradingDelisted InstrumentTrading = "delisted"
)

// Instrument is the static description of a tradable symbol.
type Instrument struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Trading  InstrumentTrading `json:"trading"`
	TickSize decimal.Decimal   `json:"tickSize"`
	LotSize  decimal.Decimal   `json:"lotSize"`
}

// InstrumentState is the live per-instrument market state pushed on the
// instruments channel. MarkPrice is the field margin math depends on.
type InstrumentState struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	LastPrice    decimal.Decimal   `json:"lastPrice"`
	High         decimal.Decimal   `json:"high"`
	Low          decimal.Decimal   `json:"low"`
	Volume       decimal.Decimal   `json:"volume"`
	VolumeBase   decimal.Decimal   `json:"volumeBase"`
	ClosePrice   decimal.Decimal   `json:"closePrice"`
	MarkPrice    decimal.Decimal   `json:"markPrice"`
	OpenInterest decimal.Decimal   `json:"openInterest"`
	MinPrice     decimal.Decimal   `json:"minPrice"`
	MaxPrice     decimal.Decimal   `json:"maxPrice"`
	Trading      InstrumentTrading `json:"trading"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// InstrumentMetrics extends the state with funding-rate metrics, as
// returned by the instruments-with-metrics bulk endpoint.
type InstrumentMetrics struct {
	InstrumentState
	FundingRate          decimal.Decimal `json:"fundingRate"`
	FundingRateCreatedAt time.Time       `json:"fundingRateCreatedAt"`
}

// InstrumentMarkPrice is the slice of instrument state the balance
// reconciler stores per instrument.
type InstrumentMarkPrice struct {
	Name      string          `json:"name"`
	MarkPrice decimal.Decimal `json:"markPrice"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// FundingRateEvent is pushed on the funding-rate channel.
type FundingRateEvent struct {
	Instrument  string          `json:"instrument"`
	FundingRate decimal.Decimal `json:"fundingRate"`
	CreatedAt   time.Time       `json:"createdAt"`
}
