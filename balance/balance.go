// Package balance is the account ledger reconciler: it merges bulk
// snapshots and push updates into keyed entity stores guarded by
// per-key timestamp watermarks, and derives available balance and
// per-instrument power from the merged view with exact decimal
// arithmetic.
package balance

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/evedex/exchange-sdk-go/entity"
	"github.com/evedex/exchange-sdk-go/pkg/latest"
	"github.com/evedex/exchange-sdk-go/pkg/signal"
)

// Fetcher is the bulk-read surface the reconciler snapshots from at
// start.
type Fetcher interface {
	GetMarketInfo(ctx context.Context) (entity.MarketInfo, error)
	GetFunding(ctx context.Context) ([]entity.Funding, error)
	GetPositions(ctx context.Context) ([]entity.Position, error)
	GetOpenedOrders(ctx context.Context) ([]entity.OpenOrder, error)
	GetTpSl(ctx context.Context, query entity.TpSlListQuery) ([]entity.TpSl, error)
	GetTransfers(ctx context.Context, query entity.TransferListQuery) ([]entity.Transfer, error)
	GetInstrumentsMetrics(ctx context.Context) ([]entity.InstrumentMetrics, error)
}

// Unsubscribe tears one push subscription down.
type Unsubscribe = func() error

// Stream is the push surface the reconciler listens on while started.
type Stream interface {
	ListenAccount(userExchangeID string, h func(entity.AccountEvent)) (Unsubscribe, error)
	ListenFunding(userExchangeID string, h func(entity.Funding)) (Unsubscribe, error)
	ListenPositions(userExchangeID string, h func(entity.Position)) (Unsubscribe, error)
	ListenOrders(userExchangeID string, h func(entity.OpenOrder)) (Unsubscribe, error)
	ListenOrderFills(userExchangeID string, h func(entity.OrderFill)) (Unsubscribe, error)
	ListenTpSl(userExchangeID string, h func(entity.TpSl)) (Unsubscribe, error)
	ListenTransfers(userExchangeID string, h func(entity.Transfer)) (Unsubscribe, error)
	ListenInstruments(h func(entity.InstrumentState)) (Unsubscribe, error)
}

// Config wires a reconciler to one account.
type Config struct {
	User    entity.User
	Fetcher Fetcher
	Stream  Stream
	Logger  *zap.Logger
}

// Option customizes reconciler construction.
type Option func(*Balance)

// Balance reconciles one account's ledger. A single instance owns its
// stores; instances must not be shared across accounts.
type Balance struct {
	user    entity.User
	fetcher Fetcher
	stream  Stream
	log     *zap.Logger

	account   *latest.Store[struct{}, entity.User]
	fundings  *latest.Store[entity.CollateralCurrency, entity.Funding]
	positions *latest.Store[string, entity.Position]
	orders    *latest.Store[string, entity.OpenOrder]
	tpsls     *latest.Store[string, entity.TpSl]
	marks     *latest.Store[string, entity.InstrumentMarkPrice]
	transfers *latest.Store[string, entity.Transfer]

	// Signals fire only for records the merge guard accepted.
	OnAccount  signal.Signal[entity.User]
	OnFunding  signal.Signal[entity.Funding]
	OnPosition signal.Signal[entity.Position]
	OnOrder    signal.Signal[entity.OpenOrder]
	// OnOrderFill is a passthrough: fills are events, not merged state,
	// so no guard applies beyond the listening check.
	OnOrderFill signal.Signal[entity.OrderFill]
	OnTpSl     signal.Signal[entity.TpSl]
	OnMark     signal.Signal[entity.InstrumentMarkPrice]
	OnTransfer signal.Signal[entity.Transfer]

	feesMu     sync.RWMutex
	fees       entity.Fees
	feesLoaded bool

	mu        sync.Mutex
	started   bool
	listening atomic.Bool
	unsubs    []Unsubscribe
}

// New constructs an idle reconciler. Start must be called before the
// stores hold anything.
func New(cfg Config, opts ...Option) *Balance {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	b := &Balance{
		user:      cfg.User,
		fetcher:   cfg.Fetcher,
		stream:    cfg.Stream,
		log:       log,
		account:   latest.NewStore[struct{}, entity.User](),
		fundings:  latest.NewStore[entity.CollateralCurrency, entity.Funding](),
		positions: latest.NewStore[string, entity.Position](),
		orders:    latest.NewStore[string, entity.OpenOrder](),
		tpsls:     latest.NewStore[string, entity.TpSl](),
		marks:     latest.NewStore[string, entity.InstrumentMarkPrice](),
		transfers: latest.NewStore[string, entity.Transfer](),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start subscribes the push channels and snapshots the ledger with
// concurrent bulk fetches. It returns after every fetch has been merged,
// so a caller reading balance right after Start sees a state at least as
// fresh as the snapshot. A failed fetch is reported but does not undo
// the subscriptions or the records merged so far; the caller decides
// whether to keep the partial ledger or Stop it. No-op when already
// started.
func (b *Balance) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return nil
	}

	b.listening.Store(true)
	b.applyAccountRecord(b.user)

	if err := b.subscribeLocked(); err != nil {
		b.teardownLocked()
		return err
	}
	b.started = true

	return b.snapshotLocked(ctx)
}

func (b *Balance) subscribeLocked() error {
	user := b.user.ExchangeID

	subscribes := []func() (Unsubscribe, error){
		func() (Unsubscribe, error) { return b.stream.ListenAccount(user, b.applyAccountEvent) },
		func() (Unsubscribe, error) { return b.stream.ListenFunding(user, b.applyFunding) },
		func() (Unsubscribe, error) { return b.stream.ListenPositions(user, b.applyPosition) },
		func() (Unsubscribe, error) { return b.stream.ListenOrders(user, b.applyOrder) },
		func() (Unsubscribe, error) { return b.stream.ListenOrderFills(user, b.applyOrderFill) },
		func() (Unsubscribe, error) { return b.stream.ListenTpSl(user, b.applyTpSl) },
		func() (Unsubscribe, error) { return b.stream.ListenTransfers(user, b.applyTransfer) },
		func() (Unsubscribe, error) { return b.stream.ListenInstruments(b.applyInstrumentState) },
	}
	for _, subscribe := range subscribes {
		unsub, err := subscribe()
		if err != nil {
			return errors.Wrap(err, "subscribe")
		}
		b.unsubs = append(b.unsubs, unsub)
	}
	return nil
}

func (b *Balance) snapshotLocked(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if b.hasFees() {
			return nil
		}
		info, err := b.fetcher.GetMarketInfo(ctx)
		if err != nil {
			return errors.Wrap(err, "fetch market info")
		}
		b.setFees(info.Fees)
		return nil
	})
	g.Go(func() error {
		fundings, err := b.fetcher.GetFunding(ctx)
		if err != nil {
			return errors.Wrap(err, "fetch funding")
		}
		for _, f := range fundings {
			b.applyFunding(f)
		}
		return nil
	})
	g.Go(func() error {
		positions, err := b.fetcher.GetPositions(ctx)
		if err != nil {
			return errors.Wrap(err, "fetch positions")
		}
		for _, p := range positions {
			b.applyPosition(p)
		}
		return nil
	})
	g.Go(func() error {
		orders, err := b.fetcher.GetOpenedOrders(ctx)
		if err != nil {
			return errors.Wrap(err, "fetch opened orders")
		}
		for _, o := range orders {
			b.applyOrder(o)
		}
		return nil
	})
	g.Go(func() error {
		tpsls, err := b.fetcher.GetTpSl(ctx, entity.TpSlListQuery{Status: entity.TpSlStatusNew})
		if err != nil {
			return errors.Wrap(err, "fetch tpsl")
		}
		for _, t := range tpsls {
			b.applyTpSl(t)
		}
		return nil
	})
	g.Go(func() error {
		transfers, err := b.fetcher.GetTransfers(ctx, entity.TransferListQuery{
			Type:   entity.TransferTypeFuturesToBalance,
			Status: entity.TransferStatusPending,
		})
		if err != nil {
			return errors.Wrap(err, "fetch transfers")
		}
		for _, t := range transfers {
			b.applyTransfer(t)
		}
		return nil
	})
	g.Go(func() error {
		metrics, err := b.fetcher.GetInstrumentsMetrics(ctx)
		if err != nil {
			return errors.Wrap(err, "fetch instruments")
		}
		for _, m := range metrics {
			b.applyInstrumentState(m.InstrumentState)
		}
		return nil
	})

	return g.Wait()
}

// Stop unsubscribes every channel and clears every store. Teardown is
// never partial: unsubscription failures are reported but do not keep
// state resident. No-op when already idle.
func (b *Balance) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return nil
	}
	return b.teardownLocked()
}

func (b *Balance) teardownLocked() error {
	b.listening.Store(false)

	var first error
	for _, unsub := range b.unsubs {
		if err := unsub(); err != nil {
			b.log.Warn("unsubscribe failed", zap.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	b.unsubs = nil

	b.account.Clear()
	b.fundings.Clear()
	b.positions.Clear()
	b.orders.Clear()
	b.tpsls.Clear()
	b.marks.Clear()
	b.transfers.Clear()

	b.started = false
	return first
}

// Started reports whether the reconciler is listening.
func (b *Balance) Started() bool { return b.listening.Load() }

func (b *Balance) hasFees() bool {
	b.feesMu.RLock()
	defer b.feesMu.RUnlock()
	return b.feesLoaded
}

func (b *Balance) setFees(fees entity.Fees) {
	b.feesMu.Lock()
	b.fees = fees
	b.feesLoaded = true
	b.feesMu.Unlock()
}

// Fees returns the cached fee configuration, zero before the first
// snapshot.
func (b *Balance) Fees() entity.Fees {
	b.feesMu.RLock()
	defer b.feesMu.RUnlock()
	return b.fees
}

func (b *Balance) applyAccountRecord(user entity.User) {
	if !b.listening.Load() {
		return
	}
	if b.account.Upsert(struct{}{}, user.UpdatedAt, user) {
		b.OnAccount.Emit(user)
	}
}

func (b *Balance) applyAccountEvent(ev entity.AccountEvent) {
	user, ok := b.account.Get(struct{}{})
	if !ok {
		user = b.user
	}
	user.MarginCall = ev.MarginCall
	user.UpdatedAt = ev.UpdatedAt
	b.applyAccountRecord(user)
}

func (b *Balance) applyFunding(f entity.Funding) {
	if !b.listening.Load() {
		return
	}
	if b.fundings.Upsert(f.Coin, f.UpdatedAt, f) {
		b.OnFunding.Emit(f)
	} else {
		b.log.Debug("stale funding dropped", zap.String("coin", string(f.Coin)))
	}
}

func (b *Balance) applyPosition(p entity.Position) {
	if !b.listening.Load() {
		return
	}
	if b.positions.Upsert(p.Instrument, p.UpdatedAt, p) {
		b.OnPosition.Emit(p)
	} else {
		b.log.Debug("stale position dropped", zap.String("instrument", p.Instrument))
	}
}

// applyOrder is the status-aware upsert: an accepted record whose status
// left the open set is pruned immediately. The timestamp watermark stays
// behind as a tombstone, so a stale "active" record arriving after the
// terminal one cannot resurrect the order.
func (b *Balance) applyOrder(o entity.OpenOrder) {
	if !b.listening.Load() {
		return
	}
	if !b.orders.Upsert(o.ID, o.UpdatedAt, o) {
		b.log.Debug("stale order dropped", zap.String("order", o.ID))
		return
	}
	if !o.Status.Open() {
		b.orders.Tombstone(o.ID)
	}
	b.OnOrder.Emit(o)
}

func (b *Balance) applyOrderFill(f entity.OrderFill) {
	if !b.listening.Load() {
		return
	}
	b.OnOrderFill.Emit(f)
}

func (b *Balance) applyTpSl(t entity.TpSl) {
	if !b.listening.Load() {
		return
	}
	if !b.tpsls.Upsert(t.ID, t.UpdatedAt, t) {
		b.log.Debug("stale tpsl dropped", zap.String("tpsl", t.ID))
		return
	}
	if t.Status != entity.TpSlStatusNew {
		b.tpsls.Tombstone(t.ID)
	}
	b.OnTpSl.Emit(t)
}

// applyTransfer keeps only withdrawals that are still pending; a record
// that settled, failed, or moves funds the other way is pruned right
// after the merge so the store never accumulates finished rows.
func (b *Balance) applyTransfer(t entity.Transfer) {
	if !b.listening.Load() {
		return
	}
	if !b.transfers.Upsert(t.ID, t.UpdatedAt, t) {
		b.log.Debug("stale transfer dropped", zap.String("transfer", t.ID))
		return
	}
	if t.Type != entity.TransferTypeFuturesToBalance || t.Status != entity.TransferStatusPending {
		b.transfers.Tombstone(t.ID)
	}
	b.OnTransfer.Emit(t)
}

func (b *Balance) applyInstrumentState(state entity.InstrumentState) {
	b.applyMarkPrice(entity.InstrumentMarkPrice{
		Name:      state.Name,
		MarkPrice: state.MarkPrice,
		UpdatedAt: state.UpdatedAt,
	})
}

func (b *Balance) applyMarkPrice(mp entity.InstrumentMarkPrice) {
	if !b.listening.Load() {
		return
	}
	if b.marks.Upsert(mp.Name, mp.UpdatedAt, mp) {
		b.OnMark.Emit(mp)
	}
}

// User returns the account record with the latest margin-call flag.
func (b *Balance) User() entity.User {
	if user, ok := b.account.Get(struct{}{}); ok {
		return user
	}
	return b.user
}

// MarginCall reports the latest margin-call flag.
func (b *Balance) MarginCall() bool { return b.User().MarginCall }

// Funding returns the balance held in one collateral currency.
func (b *Balance) Funding(coin entity.CollateralCurrency) (entity.Funding, bool) {
	return b.fundings.Get(coin)
}

// FundingList returns a copy of all funding rows.
func (b *Balance) FundingList() []entity.Funding { return b.fundings.List() }

// Position returns the open position on one instrument.
func (b *Balance) Position(instrument string) (entity.Position, bool) {
	return b.positions.Get(instrument)
}

// PositionList returns a copy of all open positions.
func (b *Balance) PositionList() []entity.Position { return b.positions.List() }

// Order returns one resting order by id.
func (b *Balance) Order(id string) (entity.OpenOrder, bool) { return b.orders.Get(id) }

// OrderList returns a copy of all resting orders.
func (b *Balance) OrderList() []entity.OpenOrder { return b.orders.List() }

// TpSlList returns a copy of all active TP/SL entries.
func (b *Balance) TpSlList() []entity.TpSl { return b.tpsls.List() }

// TransferList returns a copy of all tracked transfers.
func (b *Balance) TransferList() []entity.Transfer { return b.transfers.List() }

// MarkPrice returns the latest known mark price of one instrument.
func (b *Balance) MarkPrice(instrument string) (entity.InstrumentMarkPrice, bool) {
	return b.marks.Get(instrument)
}
