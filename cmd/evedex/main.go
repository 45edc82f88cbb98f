// Command evedex watches one exchange account: it signs in, starts the
// ledger reconciler and reports available balance and per-instrument
// power as the ledger changes.
//
// Usage:
//
//	evedex --config config.yaml --wallet maker --instrument BTCUSDT
//	evedex --config config.yaml --apikey bot --instrument BTCUSDT
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	evedex "github.com/evedex/exchange-sdk-go"
	"github.com/evedex/exchange-sdk-go/account"
	"github.com/evedex/exchange-sdk-go/config"
	"github.com/evedex/exchange-sdk-go/entity"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to yaml configuration")
	walletName := flag.String("wallet", "", "configured wallet to sign in with")
	apiKeyName := flag.String("apikey", "", "configured api key to authenticate with")
	instrument := flag.String("instrument", "BTCUSDT", "instrument to report power for")
	interval := flag.Duration("interval", 15*time.Second, "reporting interval")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	container := evedex.NewContainer(cfg, evedex.WithLogger(logger))
	gw, err := container.Gateway()
	if err != nil {
		logger.Fatal("failed to build gateway", zap.Error(err))
	}
	if err := gw.Connect(ctx); err != nil {
		logger.Fatal("failed to connect stream", zap.Error(err))
	}
	defer gw.Close()

	var acc *account.Account
	switch {
	case *walletName != "":
		acc, err = container.AccountWithWallet(ctx, *walletName)
	case *apiKeyName != "":
		acc, err = container.AccountWithAPIKey(ctx, *apiKeyName)
	default:
		logger.Fatal("either --wallet or --apikey must be set")
	}
	if err != nil {
		logger.Fatal("failed to sign in", zap.Error(err))
	}
	logger.Info("signed in", zap.String("user", acc.User().ExchangeID))

	ledger := acc.Balance()
	ledger.OnAccount.Listen(func(user entity.User) {
		if user.MarginCall {
			logger.Warn("margin call", zap.String("user", user.ExchangeID))
		}
	})
	ledger.OnOrder.Listen(func(o entity.OpenOrder) {
		logger.Info("order update",
			zap.String("order", o.ID),
			zap.String("instrument", o.Instrument),
			zap.String("status", string(o.Status)))
	})

	if err := ledger.Start(ctx); err != nil {
		logger.Fatal("failed to start reconciler", zap.Error(err))
	}
	defer ledger.Stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-ticker.C:
			data := ledger.AvailableBalance()
			power := ledger.Power(*instrument)
			logger.Info("ledger",
				zap.String("funding", data.Funding.String()),
				zap.String("available", data.AvailableBalance.String()),
				zap.String("lock", data.Lock.String()),
				zap.Int("positions", len(data.Positions)),
				zap.String("instrument", *instrument),
				zap.String("buyPower", power.Buy.String()),
				zap.String("sellPower", power.Sell.String()))
		}
	}
}
