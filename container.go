// Package evedex is a client SDK for the EVEDEX derivatives exchange:
// typed REST and stream gateways, wallet signing of trading actions, and
// a per-account ledger reconciler deriving available balance and power.
package evedex

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/evedex/exchange-sdk-go/account"
	"github.com/evedex/exchange-sdk-go/config"
	"github.com/evedex/exchange-sdk-go/gateway"
	"github.com/evedex/exchange-sdk-go/wallet"
)

// Container wires configuration into gateways, wallets and accounts.
// It is constructed explicitly and owns nothing global: two containers
// never share state.
type Container struct {
	cfg config.Config
	log *zap.Logger

	mu       sync.Mutex
	gateway  *gateway.Gateway
	wallets  map[string]*wallet.Wallet
	accounts map[string]*account.Account
}

// ContainerOption customizes container construction.
type ContainerOption func(*Container)

// WithLogger sets the container logger, shared by everything the
// container builds.
func WithLogger(log *zap.Logger) ContainerOption {
	return func(c *Container) { c.log = log }
}

// NewContainer creates a container from configuration.
func NewContainer(cfg config.Config, opts ...ContainerOption) *Container {
	c := &Container{
		cfg:      cfg,
		log:      zap.NewNop(),
		wallets:  make(map[string]*wallet.Wallet),
		accounts: make(map[string]*account.Account),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the configuration the container was built with.
func (c *Container) Config() config.Config { return c.cfg }

// Gateway returns the container's shared gateway, building it on first
// use.
func (c *Container) Gateway() (*gateway.Gateway, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gateway != nil {
		return c.gateway, nil
	}

	params, err := c.cfg.GatewayParams()
	if err != nil {
		return nil, errors.Wrap(err, "resolve gateway params")
	}
	c.gateway = gateway.New(params, gateway.Options{Logger: c.log.Named("gateway")})
	return c.gateway, nil
}

// Wallet builds the named wallet from configuration, cached per name.
func (c *Container) Wallet(name string) (*wallet.Wallet, error) {
	params, err := c.cfg.GatewayParams()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if w, ok := c.wallets[name]; ok {
		return w, nil
	}

	wcfg, ok := c.cfg.Wallets[name]
	if !ok {
		return nil, errors.Errorf("wallet %q is not configured", name)
	}
	w, err := wallet.New(wcfg.PrivateKey, params.ChainID)
	if err != nil {
		return nil, errors.Wrapf(err, "build wallet %q", name)
	}
	c.wallets[name] = w
	return w, nil
}

// AccountWithAPIKey signs the named configured API key in, cached per
// name.
func (c *Container) AccountWithAPIKey(ctx context.Context, name string) (*account.Account, error) {
	gw, err := c.Gateway()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if a, ok := c.accounts["apikey:"+name]; ok {
		c.mu.Unlock()
		return a, nil
	}
	key, ok := c.cfg.APIKeys[name]
	c.mu.Unlock()
	if !ok {
		return nil, errors.Errorf("api key %q is not configured", name)
	}

	a, err := account.NewWithAPIKey(ctx, gw, key, account.WithLogger(c.log.Named("account")))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.accounts["apikey:"+name] = a
	c.mu.Unlock()
	return a, nil
}

// AccountWithWallet runs the SIWE sign-in flow for the named configured
// wallet, cached per name.
func (c *Container) AccountWithWallet(ctx context.Context, name string) (*account.Account, error) {
	gw, err := c.Gateway()
	if err != nil {
		return nil, err
	}
	w, err := c.Wallet(name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if a, ok := c.accounts["wallet:"+name]; ok {
		c.mu.Unlock()
		return a, nil
	}
	c.mu.Unlock()

	a, err := account.SignInWallet(ctx, gw, w, account.WithLogger(c.log.Named("account")))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.accounts["wallet:"+name] = a
	c.mu.Unlock()
	return a, nil
}
