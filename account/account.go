// Package account binds one exchange user to the gateway: reads,
// signed trading actions and the balance reconciler.
package account

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/evedex/exchange-sdk-go/balance"
	"github.com/evedex/exchange-sdk-go/entity"
	"github.com/evedex/exchange-sdk-go/gateway"
	"github.com/evedex/exchange-sdk-go/internal/rest"
	"github.com/evedex/exchange-sdk-go/wallet"
)

// ErrSigningUnavailable is returned by trading methods when the account
// was built without a wallet.
var ErrSigningUnavailable = errors.New("account has no wallet attached")

// Account is a flat capability struct: every account holds the read
// surface, and the signing surface works only when a wallet is attached.
type Account struct {
	gw       *gateway.Gateway
	user     entity.User
	authUser *entity.AuthUser
	wallet   *wallet.Wallet
	log      *zap.Logger
}

// Option customizes account construction.
type Option func(*Account)

// WithWallet attaches a signing wallet to the account.
func WithWallet(w *wallet.Wallet) Option {
	return func(a *Account) { a.wallet = w }
}

// WithLogger sets the account logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *Account) { a.log = log }
}

func newAccount(ctx context.Context, gw *gateway.Gateway, opts ...Option) (*Account, error) {
	a := &Account{gw: gw, log: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}

	user, err := gw.Exchange.Me(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch account")
	}
	a.user = user
	return a, nil
}

// NewWithAPIKey authenticates with an API key and resolves the user.
func NewWithAPIKey(ctx context.Context, gw *gateway.Gateway, apiKey string, opts ...Option) (*Account, error) {
	gw.HTTPClient().SetSession(&rest.Session{APIKey: &entity.APIKey{APIKey: apiKey}})
	return newAccount(ctx, gw, opts...)
}

// NewWithSession authenticates with an existing auth session.
func NewWithSession(ctx context.Context, gw *gateway.Gateway, session entity.Session, opts ...Option) (*Account, error) {
	token := session.Token
	gw.HTTPClient().SetSession(&rest.Session{JWT: &token})

	a, err := newAccount(ctx, gw, opts...)
	if err != nil {
		return nil, err
	}
	authUser := session.User
	a.authUser = &authUser
	return a, nil
}

// SignInWallet runs the SIWE flow with the given wallet and returns an
// account that can both read and sign.
func SignInWallet(ctx context.Context, gw *gateway.Gateway, w *wallet.Wallet, opts ...Option) (*Account, error) {
	nonce, err := gw.Auth.Nonce(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "sign in wallet")
	}

	params := gw.Params()
	signed, err := w.SignAuthMessage(params.AuthDomain, params.AuthURI, params.AuthStatement, nonce)
	if err != nil {
		return nil, errors.Wrap(err, "sign auth message")
	}

	session, err := gw.Auth.SignInSiwe(ctx, entity.SignInSiweQuery{
		Wallet:    w.Address(),
		Message:   signed.Message,
		Nonce:     nonce,
		Signature: signed.Signature,
	})
	if err != nil {
		return nil, errors.Wrap(err, "sign in siwe")
	}

	return NewWithSession(ctx, gw, session, append(opts, WithWallet(w))...)
}

// User returns the exchange-side account record.
func (a *Account) User() entity.User { return a.user }

// AuthUser returns the auth-service record, nil for API-key accounts.
func (a *Account) AuthUser() *entity.AuthUser { return a.authUser }

// Wallet returns the attached wallet, nil when the account cannot sign.
func (a *Account) Wallet() *wallet.Wallet { return a.wallet }

// Gateway exposes the underlying gateway.
func (a *Account) Gateway() *gateway.Gateway { return a.gw }

// CanSign reports whether trading methods are available.
func (a *Account) CanSign() bool { return a.wallet != nil }

// Funding fetches the account's funding rows.
func (a *Account) Funding(ctx context.Context) ([]entity.Funding, error) {
	return a.gw.Exchange.GetFunding(ctx)
}

// Positions fetches the account's open positions.
func (a *Account) Positions(ctx context.Context) ([]entity.Position, error) {
	return a.gw.Exchange.GetPositions(ctx)
}

// OpenOrders fetches the account's resting orders.
func (a *Account) OpenOrders(ctx context.Context) ([]entity.OpenOrder, error) {
	return a.gw.Exchange.GetOpenedOrders(ctx)
}

// Orders queries the order history.
func (a *Account) Orders(ctx context.Context, query entity.OrderListQuery) ([]entity.Order, error) {
	return a.gw.Exchange.GetOrders(ctx, query)
}

// TpSl queries the account's take-profit/stop-loss records.
func (a *Account) TpSl(ctx context.Context, query entity.TpSlListQuery) ([]entity.TpSl, error) {
	return a.gw.Exchange.GetTpSl(ctx, query)
}

// Transfers queries the account's transfer history.
func (a *Account) Transfers(ctx context.Context, query entity.TransferListQuery) ([]entity.Transfer, error) {
	return a.gw.Exchange.GetTransfers(ctx, query)
}

// AvailableBalance fetches the server-computed free collateral.
func (a *Account) AvailableBalance(ctx context.Context) (entity.AvailableBalance, error) {
	return a.gw.Exchange.GetAvailableBalance(ctx)
}

// Power fetches the server-computed buy/sell power for one instrument.
func (a *Account) Power(ctx context.Context, instrument string) (entity.PowerData, error) {
	return a.gw.Exchange.GetPower(ctx, entity.PowerQuery{Instrument: instrument})
}

// Balance builds the local reconciler for this account. The caller owns
// its lifecycle.
func (a *Account) Balance(opts ...balance.Option) *balance.Balance {
	return balance.New(balance.Config{
		User:    a.user,
		Fetcher: a.gw.Exchange,
		Stream:  streamAdapter{a.gw.Stream},
		Logger:  a.log.Named("balance"),
	}, opts...)
}
