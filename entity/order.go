package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the matcher-side state of an order.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "new"
	OrderStatusPartiallyFilled OrderStatus = "partiallyFilled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusRejected        OrderStatus = "rejected"
	OrderStatusExpired         OrderStatus = "expired"
)

// Open reports whether the order still occupies matcher memory.
// Everything outside {new, partiallyFilled} is terminal.
func (s OrderStatus) Open() bool {
	return s == OrderStatusNew || s == OrderStatusPartiallyFilled
}

// OrderType distinguishes execution semantics.
type OrderType string

const (
	OrderTypeLimit     OrderType = "limit"
	OrderTypeMarket    OrderType = "market"
	OrderTypeStopLimit OrderType = "stopLimit"
)

// TimeInForce controls how long a limit order rests on the book.
type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "GTC"
	TimeInForceIOC TimeInForce = "IOC"
	TimeInForceFOK TimeInForce = "FOK"
)

// OpenOrder is a resting order as delivered by both the bulk opened-orders
// fetch and the orders push channel.
type OpenOrder struct {
	ID               string          `json:"id"`
	Instrument       string          `json:"instrument"`
	Side             Side            `json:"side"`
	Type             OrderType       `json:"type"`
	Status           OrderStatus     `json:"status"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnFilledQuantity decimal.Decimal `json:"unFilledQuantity"`
	LimitPrice       decimal.Decimal `json:"limitPrice"`
	CashQuantity     decimal.Decimal `json:"cashQuantity"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Order is the full order record returned by the order history endpoints.
type Order struct {
	OpenOrder
	TimeInForce TimeInForce     `json:"timeInForce,omitempty"`
	AvgPrice    decimal.Decimal `json:"avgPrice"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// OrderFill is a single execution against one of the account's orders,
// delivered on the order-fills push channel.
type OrderFill struct {
	OrderID    string          `json:"orderId"`
	Instrument string          `json:"instrument"`
	Side       Side            `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Fee        decimal.Decimal `json:"fee"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// LimitOrder is the payload signed and submitted to create a limit order.
type LimitOrder struct {
	ID          string          `json:"id"`
	Instrument  string          `json:"instrument"`
	Side        Side            `json:"side"`
	Quantity    decimal.Decimal `json:"quantity"`
	LimitPrice  decimal.Decimal `json:"limitPrice"`
	TimeInForce TimeInForce     `json:"timeInForce"`
}

// MarketOrder is the payload signed and submitted to create a market order.
// Either Quantity (base) or CashQuantity (quote) is set.
type MarketOrder struct {
	ID           string          `json:"id"`
	Instrument   string          `json:"instrument"`
	Side         Side            `json:"side"`
	Quantity     decimal.Decimal `json:"quantity"`
	CashQuantity decimal.Decimal `json:"cashQuantity"`
}

// StopLimitOrder is the payload for a stop-limit order.
type StopLimitOrder struct {
	LimitOrder
	StopPrice decimal.Decimal `json:"stopPrice"`
}

// PositionCloseOrder closes (part of) a position at market.
type PositionCloseOrder struct {
	ID         string          `json:"id"`
	Instrument string          `json:"instrument"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// ReplaceLimitOrder atomically cancels an order and rests a replacement.
type ReplaceLimitOrder struct {
	OrderID    string          `json:"orderId"`
	Quantity   decimal.Decimal `json:"quantity"`
	LimitPrice decimal.Decimal `json:"limitPrice"`
}

// ReplaceStopLimitOrder replaces a resting stop-limit order.
type ReplaceStopLimitOrder struct {
	ReplaceLimitOrder
	StopPrice decimal.Decimal `json:"stopPrice"`
}

// OrderCancelQuery identifies one order to cancel.
type OrderCancelQuery struct {
	ID string `json:"id"`
}

// OrderMassCancelQuery cancels every resting order, optionally scoped
// to one instrument.
type OrderMassCancelQuery struct {
	Instrument string `json:"instrument,omitempty"`
}

// OrderMassCancelByIDQuery cancels an explicit set of orders.
type OrderMassCancelByIDQuery struct {
	IDs []string `json:"ids"`
}

// OrderListQuery filters the order history endpoint.
type OrderListQuery struct {
	Instrument string      `json:"instrument,omitempty"`
	Status     OrderStatus `json:"status,omitempty"`
	Limit      int         `json:"limit,omitempty"`
	Offset     int         `json:"offset,omitempty"`
}

// LimitOrderBatchCreateResult is the per-order outcome of a batch create.
type LimitOrderBatchCreateResult struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}
