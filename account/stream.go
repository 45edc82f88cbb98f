package account

import (
	"github.com/evedex/exchange-sdk-go/balance"
	"github.com/evedex/exchange-sdk-go/entity"
	"github.com/evedex/exchange-sdk-go/gateway"
	"github.com/evedex/exchange-sdk-go/internal/ws"
)

// streamAdapter narrows the stream gateway to the subscription surface
// the reconciler consumes.
type streamAdapter struct {
	stream *gateway.StreamGateway
}

func wrapSub(sub *ws.Subscription, err error) (balance.Unsubscribe, error) {
	if err != nil {
		return nil, err
	}
	return sub.Unsubscribe, nil
}

func (a streamAdapter) ListenAccount(user string, h func(entity.AccountEvent)) (balance.Unsubscribe, error) {
	return wrapSub(a.stream.ListenAccount(user, h))
}

func (a streamAdapter) ListenFunding(user string, h func(entity.Funding)) (balance.Unsubscribe, error) {
	return wrapSub(a.stream.ListenFunding(user, h))
}

func (a streamAdapter) ListenPositions(user string, h func(entity.Position)) (balance.Unsubscribe, error) {
	return wrapSub(a.stream.ListenPositions(user, h))
}

func (a streamAdapter) ListenOrders(user string, h func(entity.OpenOrder)) (balance.Unsubscribe, error) {
	return wrapSub(a.stream.ListenOrders(user, h))
}

func (a streamAdapter) ListenOrderFills(user string, h func(entity.OrderFill)) (balance.Unsubscribe, error) {
	return wrapSub(a.stream.ListenOrderFills(user, h))
}

func (a streamAdapter) ListenTpSl(user string, h func(entity.TpSl)) (balance.Unsubscribe, error) {
	return wrapSub(a.stream.ListenTpSl(user, h))
}

func (a streamAdapter) ListenTransfers(user string, h func(entity.Transfer)) (balance.Unsubscribe, error) {
	return wrapSub(a.stream.ListenTransfers(user, h))
}

func (a streamAdapter) ListenInstruments(h func(entity.InstrumentState)) (balance.Unsubscribe, error) {
	return wrapSub(a.stream.ListenInstruments(h))
}
