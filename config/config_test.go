package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sdk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
environment: demo
gateway_overrides:
  exchange_uri: http://localhost:8080
wallets:
  main:
    private_key: "0xabc"
api_keys:
  bot: key-123
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, EnvironmentDemo, cfg.Environment)
	require.Equal(t, "0xabc", cfg.Wallets["main"].PrivateKey)
	require.Equal(t, "key-123", cfg.APIKeys["bot"])

	params, err := cfg.GatewayParams()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", params.ExchangeURI)
	// untouched fields keep the demo defaults
	require.Equal(t, "https://auth.evedex.com", params.AuthURI)
	require.Equal(t, "futures-perp-demo", params.StreamPrefix)
	require.Equal(t, "16182", params.ChainID)
}

func TestLoadDefaultsToDev(t *testing.T) {
	cfg, err := Load(writeConfig(t, `wallets: {}`))
	require.NoError(t, err)
	require.Equal(t, EnvironmentDev, cfg.Environment)
}

func TestLoadRejectsUnknownEnvironment(t *testing.T) {
	_, err := Load(writeConfig(t, `environment: staging`))
	require.Error(t, err)
}

func TestParamsForProd(t *testing.T) {
	params, err := ParamsFor(EnvironmentProd)
	require.NoError(t, err)
	require.Equal(t, "https://exchange-api.evedex.com", params.ExchangeURI)
	require.Equal(t, "161803", params.ChainID)
}
