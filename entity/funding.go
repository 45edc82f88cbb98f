package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CollateralCurrency identifies a collateral coin. The exchange currently
// settles everything in USDT.
type CollateralCurrency string

const CollateralUSDT CollateralCurrency = "usdt"

// Funding is the trading balance held in one collateral currency.
type Funding struct {
	Coin      CollateralCurrency `json:"coin"`
	Quantity  decimal.Decimal    `json:"quantity"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
