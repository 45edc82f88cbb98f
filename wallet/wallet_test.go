package wallet

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/evedex/exchange-sdk-go/entity"
)

// well-known test vector key, never used on any live network
const testKey = "0x4c0883a69102937d6231471b5dbb6204fe512961708279feb1be6ae5538da033"

func newTestWallet(t *testing.T) *Wallet {
	t.Helper()
	w, err := New(testKey, "16182")
	require.NoError(t, err)
	return w
}

func TestAddressDerivation(t *testing.T) {
	w := newTestWallet(t)
	require.Equal(t, "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23", w.Address())
	require.Equal(t, "16182", w.ChainID())

	// 0x prefix is optional
	bare, err := New(testKey[2:], "16182")
	require.NoError(t, err)
	require.Equal(t, w.Address(), bare.Address())
}

func TestNewRejectsGarbageKey(t *testing.T) {
	_, err := New("not-a-key", "1")
	require.Error(t, err)
}

func TestSignMessageRecoversToAddress(t *testing.T) {
	w := newTestWallet(t)

	msg := []byte("hello matcher")
	sigHex, err := w.SignMessage(msg)
	require.NoError(t, err)

	sig, err := hexutil.Decode(sigHex)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	require.GreaterOrEqual(t, sig[64], byte(27))

	sig[64] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash(msg), sig)
	require.NoError(t, err)
	require.Equal(t, w.Address(), crypto.PubkeyToAddress(*pub).Hex())
}

func TestSignLimitOrderDeterministic(t *testing.T) {
	w := newTestWallet(t)

	order := entity.LimitOrder{
		ID:          "o-1",
		Instrument:  "BTCUSDT",
		Side:        entity.SideBuy,
		Quantity:    decimal.NewFromInt(1),
		LimitPrice:  decimal.NewFromInt(20000),
		TimeInForce: entity.TimeInForceGTC,
	}

	first, err := w.SignLimitOrder(order)
	require.NoError(t, err)
	second, err := w.SignLimitOrder(order)
	require.NoError(t, err)
	require.Equal(t, first.Signature, second.Signature)
	require.Equal(t, order, first.LimitOrder)

	// any field change must change the digest
	order.LimitPrice = decimal.NewFromInt(20001)
	changed, err := w.SignLimitOrder(order)
	require.NoError(t, err)
	require.NotEqual(t, first.Signature, changed.Signature)
}

func TestSiweMessageShape(t *testing.T) {
	w := newTestWallet(t)

	signed, err := w.SignAuthMessage("evedex.com", "https://evedex.com", "Sign in to evedex.com", "n-123")
	require.NoError(t, err)

	require.Contains(t, signed.Message, "evedex.com wants you to sign in with your Ethereum account:")
	require.Contains(t, signed.Message, w.Address())
	require.Contains(t, signed.Message, "Nonce: n-123")
	require.Contains(t, signed.Message, "Chain ID: 16182")
	require.NotEmpty(t, signed.Signature)
}
