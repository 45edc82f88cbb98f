package evedex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evedex/exchange-sdk-go/config"
)

const testPrivateKey = "4c0883a69102937d6231471b5dbb6204fe512961708279feb1be6ae5538da033"

func TestContainerGatewayIsShared(t *testing.T) {
	c := NewContainer(config.Config{Environment: config.EnvironmentDev})

	first, err := c.Gateway()
	require.NoError(t, err)
	second, err := c.Gateway()
	require.NoError(t, err)
	assert.Same(t, first, second)

	params := first.Params()
	assert.Equal(t, "https://exchange.evedex.tech", params.ExchangeURI)
}

func TestContainerAppliesOverrides(t *testing.T) {
	c := NewContainer(config.Config{
		Environment: config.EnvironmentDev,
		Overrides:   &config.Overrides{ExchangeURI: "http://localhost:8080"},
	})

	gw, err := c.Gateway()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", gw.Params().ExchangeURI)
}

func TestContainerWallet(t *testing.T) {
	c := NewContainer(config.Config{
		Environment: config.EnvironmentDev,
		Wallets:     map[string]config.WalletConfig{"maker": {PrivateKey: testPrivateKey}},
	})

	w, err := c.Wallet("maker")
	require.NoError(t, err)
	assert.Equal(t, "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23", w.Address())

	again, err := c.Wallet("maker")
	require.NoError(t, err)
	assert.Same(t, w, again)

	_, err = c.Wallet("unknown")
	assert.Error(t, err)
}

func TestContainerUnknownAPIKey(t *testing.T) {
	c := NewContainer(config.Config{Environment: config.EnvironmentDev})

	_, err := c.AccountWithAPIKey(context.Background(), "missing")
	assert.Error(t, err)
}

func TestContainersAreIndependent(t *testing.T) {
	a := NewContainer(config.Config{Environment: config.EnvironmentDev})
	b := NewContainer(config.Config{Environment: config.EnvironmentDemo})

	gwA, err := a.Gateway()
	require.NoError(t, err)
	gwB, err := b.Gateway()
	require.NoError(t, err)
	assert.NotSame(t, gwA, gwB)
	assert.NotEqual(t, gwA.Params().StreamPrefix, gwB.Params().StreamPrefix)
}
