package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/evedex/exchange-sdk-go/entity"
	"github.com/evedex/exchange-sdk-go/internal/rest"
	"github.com/evedex/exchange-sdk-go/wallet"
)

// ExchangeGateway wraps the exchange REST API. Read endpoints back the
// balance reconciler's bulk fetches; write endpoints submit signed
// payloads produced by the wallet.
type ExchangeGateway struct {
	exchangeURI string
	client      *rest.Client
}

// NewExchangeGateway creates the exchange gateway over the shared REST client.
func NewExchangeGateway(exchangeURI string, client *rest.Client) *ExchangeGateway {
	return &ExchangeGateway{exchangeURI: exchangeURI, client: client}
}

func (g *ExchangeGateway) endpoint(path string) string {
	return g.exchangeURI + "/api/v1" + path
}

// Me fetches the exchange account of the current session.
func (g *ExchangeGateway) Me(ctx context.Context) (entity.User, error) {
	var user entity.User
	if err := g.client.AuthRequest(ctx, http.MethodGet, g.endpoint("/user/me"), nil, &user); err != nil {
		return entity.User{}, errors.Wrap(err, "fetch me")
	}
	return user, nil
}

// GetMarketInfo fetches matcher state and fee configuration.
func (g *ExchangeGateway) GetMarketInfo(ctx context.Context) (entity.MarketInfo, error) {
	var info entity.MarketInfo
	if err := g.client.Request(ctx, http.MethodGet, g.endpoint("/market/info"), nil, &info); err != nil {
		return entity.MarketInfo{}, errors.Wrap(err, "fetch market info")
	}
	return info, nil
}

// GetFunding fetches the trading balances per collateral currency.
func (g *ExchangeGateway) GetFunding(ctx context.Context) ([]entity.Funding, error) {
	var list []entity.Funding
	if err := g.client.AuthRequest(ctx, http.MethodGet, g.endpoint("/user/funding"), nil, &list); err != nil {
		return nil, errors.Wrap(err, "fetch funding")
	}
	return list, nil
}

// GetPositions fetches all open positions.
func (g *ExchangeGateway) GetPositions(ctx context.Context) ([]entity.Position, error) {
	var out entity.ListOf[entity.Position]
	if err := g.client.AuthRequest(ctx, http.MethodGet, g.endpoint("/user/positions"), nil, &out); err != nil {
		return nil, errors.Wrap(err, "fetch positions")
	}
	return out.List, nil
}

// GetOpenedOrders fetches every order still resting on the book.
func (g *ExchangeGateway) GetOpenedOrders(ctx context.Context) ([]entity.OpenOrder, error) {
	var list []entity.OpenOrder
	if err := g.client.AuthRequest(ctx, http.MethodGet, g.endpoint("/user/orders/opened"), nil, &list); err != nil {
		return nil, errors.Wrap(err, "fetch opened orders")
	}
	return list, nil
}

// GetOrders fetches order history filtered by query.
func (g *ExchangeGateway) GetOrders(ctx context.Context, query entity.OrderListQuery) ([]entity.Order, error) {
	params := url.Values{}
	if query.Instrument != "" {
		params.Set("instrument", query.Instrument)
	}
	if query.Status != "" {
		params.Set("status", string(query.Status))
	}
	if query.Limit > 0 {
		params.Set("limit", fmt.Sprint(query.Limit))
	}
	if query.Offset > 0 {
		params.Set("offset", fmt.Sprint(query.Offset))
	}

	var out entity.ListOf[entity.Order]
	if err := g.client.AuthRequest(ctx, http.MethodGet, withQuery(g.endpoint("/user/orders"), params), nil, &out); err != nil {
		return nil, errors.Wrap(err, "fetch orders")
	}
	return out.List, nil
}

// GetTpSl fetches take-profit/stop-loss entries filtered by query.
func (g *ExchangeGateway) GetTpSl(ctx context.Context, query entity.TpSlListQuery) ([]entity.TpSl, error) {
	params := url.Values{}
	if query.Instrument != "" {
		params.Set("instrument", query.Instrument)
	}
	if query.Status != "" {
		params.Set("status", string(query.Status))
	}

	var out entity.ListOf[entity.TpSl]
	if err := g.client.AuthRequest(ctx, http.MethodGet, withQuery(g.endpoint("/user/tpsl"), params), nil, &out); err != nil {
		return nil, errors.Wrap(err, "fetch tpsl")
	}
	return out.List, nil
}

// GetTransfers fetches balance transfers filtered by query.
func (g *ExchangeGateway) GetTransfers(ctx context.Context, query entity.TransferListQuery) ([]entity.Transfer, error) {
	params := url.Values{}
	if query.Type != "" {
		params.Set("type", string(query.Type))
	}
	if query.Status != "" {
		params.Set("status", string(query.Status))
	}

	var out entity.ListOf[entity.Transfer]
	if err := g.client.AuthRequest(ctx, http.MethodGet, withQuery(g.endpoint("/user/transfers"), params), nil, &out); err != nil {
		return nil, errors.Wrap(err, "fetch transfers")
	}
	return out.List, nil
}

// GetInstruments fetches the static instrument list.
func (g *ExchangeGateway) GetInstruments(ctx context.Context) ([]entity.Instrument, error) {
	var list []entity.Instrument
	if err := g.client.Request(ctx, http.MethodGet, g.endpoint("/instruments"), nil, &list); err != nil {
		return nil, errors.Wrap(err, "fetch instruments")
	}
	return list, nil
}

// GetInstrumentsMetrics fetches instruments with live metrics, the bulk
// source of mark prices.
func (g *ExchangeGateway) GetInstrumentsMetrics(ctx context.Context) ([]entity.InstrumentMetrics, error) {
	var list []entity.InstrumentMetrics
	if err := g.client.Request(ctx, http.MethodGet, g.endpoint("/instruments/metrics"), nil, &list); err != nil {
		return nil, errors.Wrap(err, "fetch instruments metrics")
	}
	return list, nil
}

// GetCoins fetches available coins with last prices.
func (g *ExchangeGateway) GetCoins(ctx context.Context) ([]entity.Coin, error) {
	var out entity.ListOf[entity.Coin]
	if err := g.client.Request(ctx, http.MethodGet, g.endpoint("/coins"), nil, &out); err != nil {
		return nil, errors.Wrap(err, "fetch coins")
	}
	return out.List, nil
}

// GetRecentTrades fetches the public trade tape of one instrument.
func (g *ExchangeGateway) GetRecentTrades(ctx context.Context, query entity.TradesQuery) ([]entity.RecentTrade, error) {
	params := url.Values{"instrument": {query.Instrument}}
	if query.Limit > 0 {
		params.Set("limit", fmt.Sprint(query.Limit))
	}

	var list []entity.RecentTrade
	if err := g.client.Request(ctx, http.MethodGet, withQuery(g.endpoint("/trades"), params), nil, &list); err != nil {
		return nil, errors.Wrap(err, "fetch recent trades")
	}
	return list, nil
}

// GetMarketDepth fetches an order book snapshot.
func (g *ExchangeGateway) GetMarketDepth(ctx context.Context, query entity.MarketDepthQuery) (entity.MarketDepth, error) {
	params := url.Values{"instrument": {query.Instrument}}
	if query.MaxLevel > 0 {
		params.Set("maxLevel", fmt.Sprint(query.MaxLevel))
	}
	if query.RoundPrice != "" {
		params.Set("roundPrice", query.RoundPrice)
	}

	var depth entity.MarketDepth
	if err := g.client.Request(ctx, http.MethodGet, withQuery(g.endpoint("/market/depth"), params), nil, &depth); err != nil {
		return entity.MarketDepth{}, errors.Wrap(err, "fetch market depth")
	}
	return depth, nil
}

// GetAvailableBalance fetches the server-computed free collateral, the
// parity reference for the local reconciler.
func (g *ExchangeGateway) GetAvailableBalance(ctx context.Context) (entity.AvailableBalance, error) {
	var out entity.AvailableBalance
	if err := g.client.AuthRequest(ctx, http.MethodGet, g.endpoint("/user/available-balance"), nil, &out); err != nil {
		return entity.AvailableBalance{}, errors.Wrap(err, "fetch available balance")
	}
	return out, nil
}

// GetPower fetches the server-computed buy/sell power, the parity
// reference for the locally derived numbers.
func (g *ExchangeGateway) GetPower(ctx context.Context, query entity.PowerQuery) (entity.PowerData, error) {
	params := url.Values{"instrument": {query.Instrument}}
	var power entity.PowerData
	if err := g.client.AuthRequest(ctx, http.MethodGet, withQuery(g.endpoint("/user/power"), params), nil, &power); err != nil {
		return entity.PowerData{}, errors.Wrap(err, "fetch power")
	}
	return power, nil
}

// CreateLimitOrder submits a signed limit order.
func (g *ExchangeGateway) CreateLimitOrder(ctx context.Context, order wallet.SignedLimitOrder) (entity.Order, error) {
	var out entity.Order
	if err := g.client.AuthRequest(ctx, http.MethodPost, g.endpoint("/order/limit"), order, &out); err != nil {
		return entity.Order{}, errors.Wrap(err, "create limit order")
	}
	return out, nil
}

// CreateLimitOrderV2 submits a signed limit order with a v2 id.
func (g *ExchangeGateway) CreateLimitOrderV2(ctx context.Context, order wallet.SignedLimitOrder) (entity.Order, error) {
	var out entity.Order
	if err := g.client.AuthRequest(ctx, http.MethodPost, g.endpoint("/v2/order/limit"), order, &out); err != nil {
		return entity.Order{}, errors.Wrap(err, "create limit order v2")
	}
	return out, nil
}

// BatchCreateLimitOrder submits several signed limit orders for one
// instrument atomically.
func (g *ExchangeGateway) BatchCreateLimitOrder(ctx context.Context, instrument string, orders []wallet.SignedLimitOrder) ([]entity.LimitOrderBatchCreateResult, error) {
	body := map[string]any{"instrument": instrument, "orders": orders}
	var out []entity.LimitOrderBatchCreateResult
	if err := g.client.AuthRequest(ctx, http.MethodPost, g.endpoint("/order/limit/batch"), body, &out); err != nil {
		return nil, errors.Wrap(err, "batch create limit orders")
	}
	return out, nil
}

// CreateMarketOrder submits a signed market order.
func (g *ExchangeGateway) CreateMarketOrder(ctx context.Context, order wallet.SignedMarketOrder) (entity.Order, error) {
	var out entity.Order
	if err := g.client.AuthRequest(ctx, http.MethodPost, g.endpoint("/order/market"), order, &out); err != nil {
		return entity.Order{}, errors.Wrap(err, "create market order")
	}
	return out, nil
}

// CreateStopLimitOrder submits a signed stop-limit order.
func (g *ExchangeGateway) CreateStopLimitOrder(ctx context.Context, order wallet.SignedStopLimitOrder) (entity.Order, error) {
	var out entity.Order
	if err := g.client.AuthRequest(ctx, http.MethodPost, g.endpoint("/order/stop-limit"), order, &out); err != nil {
		return entity.Order{}, errors.Wrap(err, "create stop limit order")
	}
	return out, nil
}

// ReplaceLimitOrder replaces a resting limit order.
func (g *ExchangeGateway) ReplaceLimitOrder(ctx context.Context, order wallet.SignedReplaceLimitOrder) (entity.Order, error) {
	var out entity.Order
	if err := g.client.AuthRequest(ctx, http.MethodPut, g.endpoint("/order/limit"), order, &out); err != nil {
		return entity.Order{}, errors.Wrap(err, "replace limit order")
	}
	return out, nil
}

// BatchReplaceLimitOrder replaces several limit orders on one instrument.
func (g *ExchangeGateway) BatchReplaceLimitOrder(ctx context.Context, instrument string, orders []wallet.SignedReplaceLimitOrder) ([]entity.LimitOrderBatchCreateResult, error) {
	body := map[string]any{"instrument": instrument, "orders": orders}
	var out []entity.LimitOrderBatchCreateResult
	if err := g.client.AuthRequest(ctx, http.MethodPut, g.endpoint("/order/limit/batch"), body, &out); err != nil {
		return nil, errors.Wrap(err, "batch replace limit orders")
	}
	return out, nil
}

// ReplaceStopLimitOrder replaces a resting stop-limit order.
func (g *ExchangeGateway) ReplaceStopLimitOrder(ctx context.Context, order wallet.SignedReplaceStopLimitOrder) (entity.Order, error) {
	var out entity.Order
	if err := g.client.AuthRequest(ctx, http.MethodPut, g.endpoint("/order/stop-limit"), order, &out); err != nil {
		return entity.Order{}, errors.Wrap(err, "replace stop limit order")
	}
	return out, nil
}

// ClosePosition submits a signed close-position order.
func (g *ExchangeGateway) ClosePosition(ctx context.Context, order wallet.SignedPositionCloseOrder) (entity.Order, error) {
	var out entity.Order
	if err := g.client.AuthRequest(ctx, http.MethodPost, g.endpoint("/position/close"), order, &out); err != nil {
		return entity.Order{}, errors.Wrap(err, "close position")
	}
	return out, nil
}

// UpdatePosition changes position parameters (leverage).
func (g *ExchangeGateway) UpdatePosition(ctx context.Context, query entity.PositionUpdateQuery) error {
	if err := g.client.AuthRequest(ctx, http.MethodPut, g.endpoint("/position"), query, nil); err != nil {
		return errors.Wrap(err, "update position")
	}
	return nil
}

// CancelOrder cancels one order.
func (g *ExchangeGateway) CancelOrder(ctx context.Context, query entity.OrderCancelQuery) error {
	if err := g.client.AuthRequest(ctx, http.MethodDelete, g.endpoint("/order"), query, nil); err != nil {
		return errors.Wrap(err, "cancel order")
	}
	return nil
}

// MassCancelUserOrders cancels all resting orders, optionally per instrument.
func (g *ExchangeGateway) MassCancelUserOrders(ctx context.Context, query entity.OrderMassCancelQuery) error {
	if err := g.client.AuthRequest(ctx, http.MethodDelete, g.endpoint("/orders"), query, nil); err != nil {
		return errors.Wrap(err, "mass cancel orders")
	}
	return nil
}

// MassCancelUserOrdersByID cancels an explicit set of orders.
func (g *ExchangeGateway) MassCancelUserOrdersByID(ctx context.Context, query entity.OrderMassCancelByIDQuery) error {
	if err := g.client.AuthRequest(ctx, http.MethodDelete, g.endpoint("/orders/by-id"), query, nil); err != nil {
		return errors.Wrap(err, "mass cancel orders by id")
	}
	return nil
}

// CreateTpSl submits a signed take-profit/stop-loss entry.
func (g *ExchangeGateway) CreateTpSl(ctx context.Context, tpsl wallet.SignedTpSl) (entity.TpSl, error) {
	var out entity.TpSl
	if err := g.client.AuthRequest(ctx, http.MethodPost, g.endpoint("/tpsl"), tpsl, &out); err != nil {
		return entity.TpSl{}, errors.Wrap(err, "create tpsl")
	}
	return out, nil
}

// UpdateTpSl moves the trigger of an existing entry.
func (g *ExchangeGateway) UpdateTpSl(ctx context.Context, query entity.TpSlUpdateQuery) error {
	if err := g.client.AuthRequest(ctx, http.MethodPut, g.endpoint("/tpsl"), query, nil); err != nil {
		return errors.Wrap(err, "update tpsl")
	}
	return nil
}

// CancelTpSl cancels one entry.
func (g *ExchangeGateway) CancelTpSl(ctx context.Context, query entity.TpSlCancelQuery) error {
	if err := g.client.AuthRequest(ctx, http.MethodDelete, g.endpoint("/tpsl"), query, nil); err != nil {
		return errors.Wrap(err, "cancel tpsl")
	}
	return nil
}

// Withdraw submits a signed trading balance withdrawal.
func (g *ExchangeGateway) Withdraw(ctx context.Context, withdraw wallet.SignedWithdraw) (entity.Transfer, error) {
	var out entity.Transfer
	if err := g.client.AuthRequest(ctx, http.MethodPost, g.endpoint("/user/withdraw"), withdraw, &out); err != nil {
		return entity.Transfer{}, errors.Wrap(err, "withdraw")
	}
	return out, nil
}

func withQuery(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	return endpoint + "?" + params.Encode()
}
