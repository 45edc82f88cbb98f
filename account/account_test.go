package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evedex/exchange-sdk-go/balance"
	"github.com/evedex/exchange-sdk-go/config"
	"github.com/evedex/exchange-sdk-go/entity"
	"github.com/evedex/exchange-sdk-go/gateway"
	"github.com/evedex/exchange-sdk-go/wallet"
)

const testPrivateKey = "4c0883a69102937d6231471b5dbb6204fe512961708279feb1be6ae5538da033"

var _ balance.Stream = streamAdapter{}

func testServer(t *testing.T, handler http.HandlerFunc) *gateway.Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	params, err := config.ParamsFor(config.EnvironmentDev)
	require.NoError(t, err)
	params.ExchangeURI = srv.URL
	params.AuthURI = srv.URL
	return gateway.New(params, gateway.Options{})
}

func TestNewWithAPIKeyFetchesUser(t *testing.T) {
	var gotKey string
	gw := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/user/me", r.URL.Path)
		gotKey = r.Header.Get("x-api-key")
		json.NewEncoder(w).Encode(entity.User{ID: "u-1", ExchangeID: "ex-1"})
	})

	a, err := NewWithAPIKey(context.Background(), gw, "secret")
	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "ex-1", a.User().ExchangeID)
	assert.Nil(t, a.AuthUser())
	assert.False(t, a.CanSign())
}

func TestTradingRequiresWallet(t *testing.T) {
	gw := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(entity.User{ID: "u-1", ExchangeID: "ex-1"})
	})

	a, err := NewWithAPIKey(context.Background(), gw, "secret")
	require.NoError(t, err)

	_, err = a.CreateLimitOrder(context.Background(), entity.LimitOrder{Instrument: "BTCUSDT"})
	assert.ErrorIs(t, err, ErrSigningUnavailable)
	_, err = a.Withdraw(context.Background(), entity.Withdraw{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrSigningUnavailable)
}

func TestCreateLimitOrderSignsAndSubmits(t *testing.T) {
	var submitted wallet.SignedLimitOrder
	gw := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/user/me":
			json.NewEncoder(w).Encode(entity.User{ID: "u-1", ExchangeID: "ex-1"})
		case "/api/v1/order/limit":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
			json.NewEncoder(w).Encode(entity.Order{OpenOrder: entity.OpenOrder{ID: submitted.ID, Status: entity.OrderStatusNew}})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	w, err := wallet.New(testPrivateKey, "16182")
	require.NoError(t, err)

	a, err := NewWithAPIKey(context.Background(), gw, "secret", WithWallet(w))
	require.NoError(t, err)
	require.True(t, a.CanSign())

	order, err := a.CreateLimitOrder(context.Background(), entity.LimitOrder{
		Instrument: "BTCUSDT",
		Side:       entity.SideBuy,
		Quantity:   decimal.NewFromInt(1),
		LimitPrice: decimal.NewFromInt(20000),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Len(t, submitted.ID, 32)
	assert.Equal(t, entity.TimeInForceGTC, submitted.TimeInForce)
	assert.NotEmpty(t, submitted.Signature)
}

func TestWithdrawFillsDefaults(t *testing.T) {
	var submitted wallet.SignedWithdraw
	gw := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/user/me":
			json.NewEncoder(w).Encode(entity.User{ID: "u-1", ExchangeID: "ex-1"})
		case "/api/v1/user/withdraw":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
			json.NewEncoder(w).Encode(entity.Transfer{ID: "tr-1", Status: entity.TransferStatusPending})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	w, err := wallet.New(testPrivateKey, "16182")
	require.NoError(t, err)
	a, err := NewWithAPIKey(context.Background(), gw, "secret", WithWallet(w))
	require.NoError(t, err)

	tr, err := a.Withdraw(context.Background(), entity.Withdraw{Amount: decimal.NewFromInt(50)})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusPending, tr.Status)
	assert.Equal(t, entity.CollateralUSDT, submitted.Currency)
	assert.Equal(t, w.Address(), submitted.Wallet)
	assert.NotEmpty(t, submitted.Nonce)
	assert.NotEmpty(t, submitted.Signature)
}

func TestBalanceBuildsReconciler(t *testing.T) {
	gw := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(entity.User{ID: "u-1", ExchangeID: "ex-1"})
	})

	a, err := NewWithAPIKey(context.Background(), gw, "secret")
	require.NoError(t, err)

	b := a.Balance()
	require.NotNil(t, b)
	assert.False(t, b.Started())
	assert.Equal(t, "ex-1", b.User().ExchangeID)
}
