package gateway

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/evedex/exchange-sdk-go/entity"
	"github.com/evedex/exchange-sdk-go/internal/ws"
)

// StreamGateway decodes push channels into entity payloads. Account
// channels are scoped by the user's exchange id; market channels are
// shared across accounts.
type StreamGateway struct {
	client *ws.Client
	log    *zap.Logger
}

// NewStreamGateway wraps a connected websocket client.
func NewStreamGateway(client *ws.Client, log *zap.Logger) *StreamGateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &StreamGateway{client: client, log: log}
}

func userChannel(kind, userExchangeID string) string {
	return fmt.Sprintf("%s#%s", kind, userExchangeID)
}

func instrumentChannel(kind, instrument string) string {
	return fmt.Sprintf("%s:%s", kind, instrument)
}

// subscribeJSON attaches a decoder for T to a channel; undecodable
// payloads are dropped with a log line, the stream itself stays alive.
func subscribeJSON[T any](g *StreamGateway, channel string, h func(T)) (*ws.Subscription, error) {
	return g.client.Subscribe(channel, func(data json.RawMessage) {
		var payload T
		if err := json.Unmarshal(data, &payload); err != nil {
			g.log.Warn("drop undecodable publication",
				zap.String("channel", channel), zap.Error(err))
			return
		}
		h(payload)
	})
}

// ListenAccount subscribes to account events (margin-call flag).
func (g *StreamGateway) ListenAccount(userExchangeID string, h func(entity.AccountEvent)) (*ws.Subscription, error) {
	return subscribeJSON(g, userChannel("account", userExchangeID), h)
}

// ListenFunding subscribes to trading balance updates.
func (g *StreamGateway) ListenFunding(userExchangeID string, h func(entity.Funding)) (*ws.Subscription, error) {
	return subscribeJSON(g, userChannel("funding", userExchangeID), h)
}

// ListenPositions subscribes to position updates.
func (g *StreamGateway) ListenPositions(userExchangeID string, h func(entity.Position)) (*ws.Subscription, error) {
	return subscribeJSON(g, userChannel("positions", userExchangeID), h)
}

// ListenOrders subscribes to order state updates.
func (g *StreamGateway) ListenOrders(userExchangeID string, h func(entity.OpenOrder)) (*ws.Subscription, error) {
	return subscribeJSON(g, userChannel("orders", userExchangeID), h)
}

// ListenOrderFills subscribes to the account's execution stream.
func (g *StreamGateway) ListenOrderFills(userExchangeID string, h func(entity.OrderFill)) (*ws.Subscription, error) {
	return subscribeJSON(g, userChannel("order-fills", userExchangeID), h)
}

// ListenTpSl subscribes to take-profit/stop-loss updates.
func (g *StreamGateway) ListenTpSl(userExchangeID string, h func(entity.TpSl)) (*ws.Subscription, error) {
	return subscribeJSON(g, userChannel("tpsl", userExchangeID), h)
}

// ListenTransfers subscribes to balance transfer updates.
func (g *StreamGateway) ListenTransfers(userExchangeID string, h func(entity.Transfer)) (*ws.Subscription, error) {
	return subscribeJSON(g, userChannel("transfers", userExchangeID), h)
}

// ListenInstruments subscribes to instrument state (incl. mark prices)
// for all instruments.
func (g *StreamGateway) ListenInstruments(h func(entity.InstrumentState)) (*ws.Subscription, error) {
	return subscribeJSON(g, "instruments", h)
}

// ListenFundingRates subscribes to funding-rate updates for all instruments.
func (g *StreamGateway) ListenFundingRates(h func(entity.FundingRateEvent)) (*ws.Subscription, error) {
	return subscribeJSON(g, "funding-rates", h)
}

// ListenMatcher subscribes to matcher state transitions.
func (g *StreamGateway) ListenMatcher(h func(entity.MatcherUpdateEvent)) (*ws.Subscription, error) {
	return subscribeJSON(g, "matcher", h)
}

// ListenOrderBook subscribes to full order book updates of one instrument.
func (g *StreamGateway) ListenOrderBook(instrument string, h func(entity.MarketDepth)) (*ws.Subscription, error) {
	return subscribeJSON(g, instrumentChannel("orderbook", instrument), h)
}

// ListenOrderBookBest subscribes to top-of-book updates of one instrument.
func (g *StreamGateway) ListenOrderBookBest(instrument string, h func(entity.MarketDepth)) (*ws.Subscription, error) {
	return subscribeJSON(g, instrumentChannel("orderbook-best", instrument), h)
}

// ListenRecentTrades subscribes to the public trade tape of one instrument.
func (g *StreamGateway) ListenRecentTrades(instrument string, h func(entity.RecentTrade)) (*ws.Subscription, error) {
	return subscribeJSON(g, instrumentChannel("trades", instrument), h)
}

// OnRecover registers a listener fired per subscription after the
// transport reconnects; the owner re-seeds state via bulk fetch.
func (g *StreamGateway) OnRecover(fn func(*ws.Subscription)) func() {
	return g.client.OnRecover.Listen(fn)
}
