package account

import (
	"context"

	"github.com/pkg/errors"

	"github.com/evedex/exchange-sdk-go/entity"
	"github.com/evedex/exchange-sdk-go/gateway"
	"github.com/evedex/exchange-sdk-go/wallet"
)

func (a *Account) requireWallet() (*wallet.Wallet, error) {
	if a.wallet == nil {
		return nil, ErrSigningUnavailable
	}
	return a.wallet, nil
}

// CreateLimitOrder signs and submits a limit order. A missing ID is
// filled with a fresh order id.
func (a *Account) CreateLimitOrder(ctx context.Context, order entity.LimitOrder) (entity.Order, error) {
	w, err := a.requireWallet()
	if err != nil {
		return entity.Order{}, err
	}
	if order.ID == "" {
		order.ID = gateway.ShortUUID()
	}
	if order.TimeInForce == "" {
		order.TimeInForce = entity.TimeInForceGTC
	}
	signed, err := w.SignLimitOrder(order)
	if err != nil {
		return entity.Order{}, errors.Wrap(err, "sign limit order")
	}
	return a.gw.Exchange.CreateLimitOrder(ctx, signed)
}

// CreateLimitOrderV2 is CreateLimitOrder against the v2 endpoint, which
// expects hex order ids.
func (a *Account) CreateLimitOrderV2(ctx context.Context, order entity.LimitOrder) (entity.Order, error) {
	w, err := a.requireWallet()
	if err != nil {
		return entity.Order{}, err
	}
	if order.ID == "" {
		order.ID = gateway.OrderIDV2()
	}
	if order.TimeInForce == "" {
		order.TimeInForce = entity.TimeInForceGTC
	}
	signed, err := w.SignLimitOrder(order)
	if err != nil {
		return entity.Order{}, errors.Wrap(err, "sign limit order")
	}
	return a.gw.Exchange.CreateLimitOrderV2(ctx, signed)
}

// BatchCreateLimitOrder signs and submits up to a batch of limit orders
// for one instrument.
func (a *Account) BatchCreateLimitOrder(ctx context.Context, instrument string, orders []entity.LimitOrder) ([]entity.LimitOrderBatchCreateResult, error) {
	w, err := a.requireWallet()
	if err != nil {
		return nil, err
	}
	signed := make([]wallet.SignedLimitOrder, 0, len(orders))
	for _, order := range orders {
		if order.ID == "" {
			order.ID = gateway.ShortUUID()
		}
		if order.TimeInForce == "" {
			order.TimeInForce = entity.TimeInForceGTC
		}
		s, err := w.SignLimitOrder(order)
		if err != nil {
			return nil, errors.Wrap(err, "sign limit order")
		}
		signed = append(signed, s)
	}
	return a.gw.Exchange.BatchCreateLimitOrder(ctx, instrument, signed)
}

// CreateMarketOrder signs and submits a market order.
func (a *Account) CreateMarketOrder(ctx context.Context, order entity.MarketOrder) (entity.Order, error) {
	w, err := a.requireWallet()
	if err != nil {
		return entity.Order{}, err
	}
	if order.ID == "" {
		order.ID = gateway.ShortUUID()
	}
	signed, err := w.SignMarketOrder(order)
	if err != nil {
		return entity.Order{}, errors.Wrap(err, "sign market order")
	}
	return a.gw.Exchange.CreateMarketOrder(ctx, signed)
}

// CreateStopLimitOrder signs and submits a stop-limit order.
func (a *Account) CreateStopLimitOrder(ctx context.Context, order entity.StopLimitOrder) (entity.Order, error) {
	w, err := a.requireWallet()
	if err != nil {
		return entity.Order{}, err
	}
	if order.ID == "" {
		order.ID = gateway.ShortUUID()
	}
	if order.TimeInForce == "" {
		order.TimeInForce = entity.TimeInForceGTC
	}
	signed, err := w.SignStopLimitOrder(order)
	if err != nil {
		return entity.Order{}, errors.Wrap(err, "sign stop limit order")
	}
	return a.gw.Exchange.CreateStopLimitOrder(ctx, signed)
}

// ReplaceLimitOrder signs and submits a cancel-replace.
func (a *Account) ReplaceLimitOrder(ctx context.Context, order entity.ReplaceLimitOrder) (entity.Order, error) {
	w, err := a.requireWallet()
	if err != nil {
		return entity.Order{}, err
	}
	signed, err := w.SignReplaceLimitOrder(order)
	if err != nil {
		return entity.Order{}, errors.Wrap(err, "sign replace")
	}
	return a.gw.Exchange.ReplaceLimitOrder(ctx, signed)
}

// BatchReplaceLimitOrder signs and submits a batch of cancel-replaces
// for one instrument.
func (a *Account) BatchReplaceLimitOrder(ctx context.Context, instrument string, orders []entity.ReplaceLimitOrder) ([]entity.LimitOrderBatchCreateResult, error) {
	w, err := a.requireWallet()
	if err != nil {
		return nil, err
	}
	signed := make([]wallet.SignedReplaceLimitOrder, 0, len(orders))
	for _, order := range orders {
		s, err := w.SignReplaceLimitOrder(order)
		if err != nil {
			return nil, errors.Wrap(err, "sign replace")
		}
		signed = append(signed, s)
	}
	return a.gw.Exchange.BatchReplaceLimitOrder(ctx, instrument, signed)
}

// ReplaceStopLimitOrder signs and submits a stop-limit cancel-replace.
func (a *Account) ReplaceStopLimitOrder(ctx context.Context, order entity.ReplaceStopLimitOrder) (entity.Order, error) {
	w, err := a.requireWallet()
	if err != nil {
		return entity.Order{}, err
	}
	signed, err := w.SignReplaceStopLimitOrder(order)
	if err != nil {
		return entity.Order{}, errors.Wrap(err, "sign replace")
	}
	return a.gw.Exchange.ReplaceStopLimitOrder(ctx, signed)
}

// ClosePosition signs and submits a market close for (part of) a
// position.
func (a *Account) ClosePosition(ctx context.Context, order entity.PositionCloseOrder) (entity.Order, error) {
	w, err := a.requireWallet()
	if err != nil {
		return entity.Order{}, err
	}
	if order.ID == "" {
		order.ID = gateway.ShortUUID()
	}
	signed, err := w.SignPositionCloseOrder(order)
	if err != nil {
		return entity.Order{}, errors.Wrap(err, "sign position close")
	}
	return a.gw.Exchange.ClosePosition(ctx, signed)
}

// UpdatePosition changes position leverage or margin mode. Not a signed
// action.
func (a *Account) UpdatePosition(ctx context.Context, query entity.PositionUpdateQuery) error {
	return a.gw.Exchange.UpdatePosition(ctx, query)
}

// CancelOrder cancels one resting order.
func (a *Account) CancelOrder(ctx context.Context, id string) error {
	return a.gw.Exchange.CancelOrder(ctx, entity.OrderCancelQuery{ID: id})
}

// MassCancelOrders cancels every resting order, optionally scoped to one
// instrument.
func (a *Account) MassCancelOrders(ctx context.Context, instrument string) error {
	return a.gw.Exchange.MassCancelUserOrders(ctx, entity.OrderMassCancelQuery{Instrument: instrument})
}

// MassCancelOrdersByID cancels an explicit set of orders.
func (a *Account) MassCancelOrdersByID(ctx context.Context, ids []string) error {
	return a.gw.Exchange.MassCancelUserOrdersByID(ctx, entity.OrderMassCancelByIDQuery{IDs: ids})
}

// CreateTpSl signs and submits a take-profit/stop-loss trigger.
func (a *Account) CreateTpSl(ctx context.Context, tpsl entity.TpSlCreate) (entity.TpSl, error) {
	w, err := a.requireWallet()
	if err != nil {
		return entity.TpSl{}, err
	}
	if tpsl.ID == "" {
		tpsl.ID = gateway.ShortUUID()
	}
	signed, err := w.SignTpSl(tpsl)
	if err != nil {
		return entity.TpSl{}, errors.Wrap(err, "sign tpsl")
	}
	return a.gw.Exchange.CreateTpSl(ctx, signed)
}

// UpdateTpSl updates trigger prices on an existing tpsl record.
func (a *Account) UpdateTpSl(ctx context.Context, query entity.TpSlUpdateQuery) error {
	return a.gw.Exchange.UpdateTpSl(ctx, query)
}

// CancelTpSl cancels a tpsl record.
func (a *Account) CancelTpSl(ctx context.Context, query entity.TpSlCancelQuery) error {
	return a.gw.Exchange.CancelTpSl(ctx, query)
}

// Withdraw signs and submits a collateral withdrawal.
func (a *Account) Withdraw(ctx context.Context, withdraw entity.Withdraw) (entity.Transfer, error) {
	w, err := a.requireWallet()
	if err != nil {
		return entity.Transfer{}, err
	}
	if withdraw.Nonce == "" {
		withdraw.Nonce = gateway.ShortUUID()
	}
	if withdraw.Wallet == "" {
		withdraw.Wallet = w.Address()
	}
	if withdraw.Currency == "" {
		withdraw.Currency = entity.CollateralUSDT
	}
	signed, err := w.SignWithdraw(withdraw)
	if err != nil {
		return entity.Transfer{}, errors.Wrap(err, "sign withdraw")
	}
	return a.gw.Exchange.Withdraw(ctx, signed)
}
