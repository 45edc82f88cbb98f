// Package gateway is the facade over the exchange's REST and websocket
// APIs: typed endpoints, typed push channels, and market-data listeners
// that merge bulk snapshots with push updates per instrument.
package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/evedex/exchange-sdk-go/config"
	"github.com/evedex/exchange-sdk-go/entity"
	"github.com/evedex/exchange-sdk-go/internal/rest"
	"github.com/evedex/exchange-sdk-go/internal/ws"
	"github.com/evedex/exchange-sdk-go/pkg/latest"
	"github.com/evedex/exchange-sdk-go/pkg/signal"
)

// Options tune gateway construction.
type Options struct {
	// Session pre-seeds the REST client credential.
	Session *rest.Session
	// Logger is shared by the transports. Defaults to a nop logger.
	Logger *zap.Logger
}

// Gateway owns one REST client and one stream connection against a
// single environment.
type Gateway struct {
	Auth     *AuthGateway
	Exchange *ExchangeGateway
	Stream   *StreamGateway

	params     config.GatewayParams
	httpClient *rest.Client
	wsClient   *ws.Client
	log        *zap.Logger

	// Market-data signals fire only for records accepted by the
	// per-instrument monotonic guards below.
	OnInstrumentState signal.Signal[entity.InstrumentState]
	OnFundingRate     signal.Signal[entity.FundingRateEvent]
	OnMatcherState    signal.Signal[entity.MatcherUpdateEvent]
	OnOrderBook       signal.Signal[entity.MarketDepth]
	OnOrderBookBest   signal.Signal[entity.MarketDepth]
	OnTrade           signal.Signal[entity.RecentTrade]

	instrumentStates *latest.Store[string, entity.InstrumentState]
	fundingRates     *latest.Store[string, entity.FundingRateEvent]
	matcherState     *latest.Store[struct{}, entity.MatcherUpdateEvent]

	mu   sync.Mutex
	subs map[string]*ws.Subscription
}

// New builds a gateway for the given environment params. Connect must be
// called before push channels deliver anything.
func New(params config.GatewayParams, opts Options) *Gateway {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	httpClient := rest.New(opts.Session, rest.WithLogger(log.Named("rest")))

	wsClient := ws.New(params.StreamURI, params.StreamPrefix,
		ws.WithLogger(log.Named("ws")),
		ws.WithTokenSource(func() string {
			if s := httpClient.GetSession(); s != nil && s.JWT != nil {
				return s.JWT.AccessToken
			}
			return ""
		}),
	)

	g := &Gateway{
		params:           params,
		httpClient:       httpClient,
		wsClient:         wsClient,
		log:              log,
		instrumentStates: latest.NewStore[string, entity.InstrumentState](),
		fundingRates:     latest.NewStore[string, entity.FundingRateEvent](),
		matcherState:     latest.NewStore[struct{}, entity.MatcherUpdateEvent](),
		subs:             make(map[string]*ws.Subscription),
	}

	g.Auth = NewAuthGateway(params.AuthURI, httpClient)
	g.Exchange = NewExchangeGateway(params.ExchangeURI, httpClient)
	g.Stream = NewStreamGateway(wsClient, log.Named("stream"))
	httpClient.SetRefresher(g.Auth)

	return g
}

// Params returns the environment params the gateway was built with.
func (g *Gateway) Params() config.GatewayParams { return g.params }

// HTTPClient exposes the underlying REST client for session management.
func (g *Gateway) HTTPClient() *rest.Client { return g.httpClient }

// Session returns the current REST credential, nil when anonymous.
func (g *Gateway) Session() *rest.Session { return g.httpClient.GetSession() }

// SkipSession drops the current credential.
func (g *Gateway) SkipSession() { g.httpClient.SkipSession() }

// Connect opens the stream connection.
func (g *Gateway) Connect(ctx context.Context) error {
	return g.wsClient.Connect(ctx)
}

// Close terminates the stream connection.
func (g *Gateway) Close() error {
	return g.wsClient.Disconnect()
}

// OnRecover registers a listener fired per subscription after a stream
// reconnect.
func (g *Gateway) OnRecover(fn func(*ws.Subscription)) func() {
	return g.Stream.OnRecover(fn)
}

func (g *Gateway) trackSub(name string, sub *ws.Subscription, err error) error {
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.subs[name] = sub
	g.mu.Unlock()
	return nil
}

func (g *Gateway) dropSub(name string) {
	g.mu.Lock()
	sub := g.subs[name]
	delete(g.subs, name)
	g.mu.Unlock()
	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			g.log.Warn("unsubscribe failed", zap.String("channel", name), zap.Error(err))
		}
	}
}

func (g *Gateway) applyInstrumentState(state entity.InstrumentState) {
	if g.instrumentStates.Upsert(state.Name, state.UpdatedAt, state) {
		g.OnInstrumentState.Emit(state)
	}
}

// ListenInstrumentState subscribes to instrument updates and seeds the
// guard from the metrics bulk fetch. Push records racing the fetch win
// per instrument by timestamp, never by arrival order.
func (g *Gateway) ListenInstrumentState(ctx context.Context) error {
	sub, err := g.Stream.ListenInstruments(g.applyInstrumentState)
	if err := g.trackSub("instruments", sub, err); err != nil {
		return errors.Wrap(err, "listen instruments")
	}

	metrics, err := g.Exchange.GetInstrumentsMetrics(ctx)
	if err != nil {
		return errors.Wrap(err, "seed instrument states")
	}
	for _, m := range metrics {
		g.applyInstrumentState(m.InstrumentState)
	}
	return nil
}

// UnListenInstrumentState drops the subscription and its watermarks.
func (g *Gateway) UnListenInstrumentState() {
	g.dropSub("instruments")
	g.instrumentStates.Clear()
}

func (g *Gateway) applyFundingRate(ev entity.FundingRateEvent) {
	if g.fundingRates.Upsert(ev.Instrument, ev.CreatedAt, ev) {
		g.OnFundingRate.Emit(ev)
	}
}

// ListenFundingRateState subscribes to funding-rate updates, seeded from
// the instrument metrics fetch.
func (g *Gateway) ListenFundingRateState(ctx context.Context) error {
	sub, err := g.Stream.ListenFundingRates(g.applyFundingRate)
	if err := g.trackSub("funding-rates", sub, err); err != nil {
		return errors.Wrap(err, "listen funding rates")
	}

	metrics, err := g.Exchange.GetInstrumentsMetrics(ctx)
	if err != nil {
		return errors.Wrap(err, "seed funding rates")
	}
	for _, m := range metrics {
		g.applyFundingRate(entity.FundingRateEvent{
			Instrument:  m.Name,
			FundingRate: m.FundingRate,
			CreatedAt:   m.FundingRateCreatedAt,
		})
	}
	return nil
}

// UnListenFundingRateState drops the subscription and its watermarks.
func (g *Gateway) UnListenFundingRateState() {
	g.dropSub("funding-rates")
	g.fundingRates.Clear()
}

func (g *Gateway) applyMatcherState(ev entity.MatcherUpdateEvent) {
	if g.matcherState.Upsert(struct{}{}, ev.UpdatedAt, ev) {
		g.OnMatcherState.Emit(ev)
	}
}

// ListenMatcherState subscribes to matcher transitions, seeded from the
// market info fetch.
func (g *Gateway) ListenMatcherState(ctx context.Context) error {
	sub, err := g.Stream.ListenMatcher(g.applyMatcherState)
	if err := g.trackSub("matcher", sub, err); err != nil {
		return errors.Wrap(err, "listen matcher")
	}

	info, err := g.Exchange.GetMarketInfo(ctx)
	if err != nil {
		return errors.Wrap(err, "seed matcher state")
	}
	g.applyMatcherState(entity.MatcherUpdateEvent{State: info.State, UpdatedAt: info.UpdatedAt})
	return nil
}

// UnListenMatcherState drops the subscription and its watermark.
func (g *Gateway) UnListenMatcherState() {
	g.dropSub("matcher")
	g.matcherState.Clear()
}

// ListenOrderBook subscribes to full book updates of one instrument,
// seeded from a depth snapshot. Book updates carry a per-instrument
// sequence t; stale frames are dropped by the guard inside the handler.
func (g *Gateway) ListenOrderBook(ctx context.Context, instrument string) error {
	guard := latest.NewStore[string, struct{}]()

	sub, err := g.Stream.ListenOrderBook(instrument, func(depth entity.MarketDepth) {
		if guard.Upsert(depth.Instrument, seqTime(depth.T), struct{}{}) {
			g.OnOrderBook.Emit(depth)
		}
	})
	if err := g.trackSub("orderbook:"+instrument, sub, err); err != nil {
		return errors.Wrap(err, "listen order book")
	}

	depth, err := g.Exchange.GetMarketDepth(ctx, entity.MarketDepthQuery{Instrument: instrument, MaxLevel: 30})
	if err != nil {
		return errors.Wrap(err, "seed order book")
	}
	if guard.Upsert(depth.Instrument, seqTime(depth.T), struct{}{}) {
		g.OnOrderBook.Emit(depth)
	}
	return nil
}

// UnListenOrderBook drops the book subscription of one instrument.
func (g *Gateway) UnListenOrderBook(instrument string) {
	g.dropSub("orderbook:" + instrument)
}

// ListenOrderBookBest subscribes to top-of-book updates of one
// instrument.
func (g *Gateway) ListenOrderBookBest(instrument string) error {
	guard := latest.NewStore[string, struct{}]()

	sub, err := g.Stream.ListenOrderBookBest(instrument, func(depth entity.MarketDepth) {
		if guard.Upsert(depth.Instrument, seqTime(depth.T), struct{}{}) {
			g.OnOrderBookBest.Emit(depth)
		}
	})
	if err := g.trackSub("orderbook-best:"+instrument, sub, err); err != nil {
		return errors.Wrap(err, "listen order book best")
	}
	return nil
}

// UnListenOrderBookBest drops the top-of-book subscription of one
// instrument.
func (g *Gateway) UnListenOrderBookBest(instrument string) {
	g.dropSub("orderbook-best:" + instrument)
}

// ListenTrades subscribes to the public tape of one instrument.
func (g *Gateway) ListenTrades(instrument string) error {
	guard := latest.NewStore[string, struct{}]()

	sub, err := g.Stream.ListenRecentTrades(instrument, func(trade entity.RecentTrade) {
		if guard.Upsert(trade.Instrument, trade.CreatedAt, struct{}{}) {
			g.OnTrade.Emit(trade)
		}
	})
	if err := g.trackSub("trades:"+instrument, sub, err); err != nil {
		return errors.Wrap(err, "listen trades")
	}
	return nil
}

// UnListenTrades drops the tape subscription of one instrument.
func (g *Gateway) UnListenTrades(instrument string) {
	g.dropSub("trades:" + instrument)
}

// seqTime maps a millisecond book sequence onto the guard's time axis.
func seqTime(t int64) time.Time { return time.UnixMilli(t) }
