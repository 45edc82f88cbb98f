package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus is the settlement state of a balance transfer.
type TransferStatus string

const (
	TransferStatusPending TransferStatus = "pending"
	TransferStatusDone    TransferStatus = "done"
	TransferStatusFailed  TransferStatus = "failed"
)

// TransferType distinguishes transfer directions. Pending withdrawals from
// the futures trading balance lock collateral until they settle.
type TransferType string

const (
	TransferTypeFuturesToBalance TransferType = "transferPFuturesToBalance"
	TransferTypeBalanceToFutures TransferType = "transferBalanceToPFutures"
)

// Transfer is a balance movement between wallets.
type Transfer struct {
	ID        string          `json:"id"`
	Type      TransferType    `json:"type"`
	Status    TransferStatus  `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// TransferListQuery filters the transfers endpoint.
type TransferListQuery struct {
	Type   TransferType   `json:"type,omitempty"`
	Status TransferStatus `json:"status,omitempty"`
}

// Withdraw is the signed payload moving collateral out of the trading
// balance.
type Withdraw struct {
	Currency CollateralCurrency `json:"currency"`
	Amount   decimal.Decimal    `json:"amount"`
	Wallet   string             `json:"wallet"`
	Nonce    string             `json:"nonce"`
}
