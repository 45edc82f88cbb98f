package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TpSlStatus is the lifecycle state of a take-profit/stop-loss entry.
type TpSlStatus string

const (
	TpSlStatusNew       TpSlStatus = "new"
	TpSlStatusDone      TpSlStatus = "done"
	TpSlStatusCancelled TpSlStatus = "cancelled"
)

// TpSlKind distinguishes the trigger direction.
type TpSlKind string

const (
	TpSlKindTakeProfit TpSlKind = "takeProfit"
	TpSlKindStopLoss   TpSlKind = "stopLoss"
)

// TpSl is a conditional trigger attached to a position.
type TpSl struct {
	ID           string          `json:"id"`
	Instrument   string          `json:"instrument"`
	Kind         TpSlKind        `json:"kind"`
	Side         Side            `json:"side"`
	TriggerPrice decimal.Decimal `json:"triggerPrice"`
	LimitPrice   decimal.Decimal `json:"limitPrice"`
	Quantity     decimal.Decimal `json:"quantity"`
	Status       TpSlStatus      `json:"status"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// TpSlCreate is the signed payload creating a TP/SL entry.
type TpSlCreate struct {
	ID           string          `json:"id"`
	Instrument   string          `json:"instrument"`
	Kind         TpSlKind        `json:"kind"`
	Side         Side            `json:"side"`
	TriggerPrice decimal.Decimal `json:"triggerPrice"`
	LimitPrice   decimal.Decimal `json:"limitPrice"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// TpSlUpdateQuery moves the trigger of an existing entry.
type TpSlUpdateQuery struct {
	ID           string          `json:"id"`
	TriggerPrice decimal.Decimal `json:"triggerPrice"`
	LimitPrice   decimal.Decimal `json:"limitPrice"`
}

// TpSlCancelQuery cancels one entry.
type TpSlCancelQuery struct {
	ID string `json:"id"`
}

// TpSlListQuery filters the TP/SL list endpoint.
type TpSlListQuery struct {
	Instrument string     `json:"instrument,omitempty"`
	Status     TpSlStatus `json:"status,omitempty"`
}
