// Package config maps deployment environments onto gateway endpoints and
// loads SDK configuration (wallets, API keys, overrides) from yaml.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Environment selects a deployment of the exchange.
type Environment string

const (
	EnvironmentProd Environment = "prod"
	EnvironmentDemo Environment = "demo"
	EnvironmentDev  Environment = "dev"
)

// GatewayParams are the endpoints and chain id of one environment.
type GatewayParams struct {
	ExchangeURI  string `yaml:"exchange_uri"`
	AuthURI      string `yaml:"auth_uri"`
	StreamURI    string `yaml:"stream_uri"`
	StreamPrefix string `yaml:"stream_prefix"`
	ChainID      string `yaml:"chain_id"`
	// AuthDomain and AuthStatement shape the sign-in message presented
	// to the wallet.
	AuthDomain    string `yaml:"auth_domain"`
	AuthStatement string `yaml:"auth_statement"`
}

var gatewayParams = map[Environment]GatewayParams{
	EnvironmentProd: {
		ExchangeURI:   "https://exchange-api.evedex.com",
		AuthURI:       "https://auth.evedex.com",
		StreamURI:     "wss://stream.evedex.com/connection/websocket",
		StreamPrefix:  "futures-perp",
		ChainID:       "161803",
		AuthDomain:    "evedex.com",
		AuthStatement: "Sign in to EVEDEX",
	},
	EnvironmentDemo: {
		ExchangeURI:   "https://demo-exchange-api.evedex.com",
		AuthURI:       "https://auth.evedex.com",
		StreamURI:     "wss://ws.evedex.com/connection/websocket",
		StreamPrefix:  "futures-perp-demo",
		ChainID:       "16182",
		AuthDomain:    "evedex.com",
		AuthStatement: "Sign in to EVEDEX",
	},
	EnvironmentDev: {
		ExchangeURI:   "https://exchange.evedex.tech",
		AuthURI:       "https://auth.evedex.tech",
		StreamURI:     "wss://ws.evedex.tech/connection/websocket",
		StreamPrefix:  "futures-perp-dev",
		ChainID:       "16182",
		AuthDomain:    "evedex.tech",
		AuthStatement: "Sign in to EVEDEX",
	},
}

// ParamsFor returns the endpoint set of env.
func ParamsFor(env Environment) (GatewayParams, error) {
	params, ok := gatewayParams[env]
	if !ok {
		return GatewayParams{}, errors.Errorf("unknown environment %q", env)
	}
	return params, nil
}

// WalletConfig names a signing key.
type WalletConfig struct {
	PrivateKey string `yaml:"private_key"`
}

// Overrides replace selected gateway params, empty fields keep defaults.
type Overrides struct {
	ExchangeURI  string `yaml:"exchange_uri,omitempty"`
	AuthURI      string `yaml:"auth_uri,omitempty"`
	StreamURI    string `yaml:"stream_uri,omitempty"`
	StreamPrefix string `yaml:"stream_prefix,omitempty"`
	ChainID      string `yaml:"chain_id,omitempty"`
}

// Config is the yaml SDK configuration.
type Config struct {
	Environment Environment             `yaml:"environment"`
	Overrides   *Overrides              `yaml:"gateway_overrides,omitempty"`
	Wallets     map[string]WalletConfig `yaml:"wallets,omitempty"`
	APIKeys     map[string]string       `yaml:"api_keys,omitempty"`
}

// Load reads and validates a yaml config file.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}

	if cfg.Environment == "" {
		cfg.Environment = EnvironmentDev
	}
	if _, err := ParamsFor(cfg.Environment); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GatewayParams resolves the environment defaults with overrides applied.
func (c Config) GatewayParams() (GatewayParams, error) {
	params, err := ParamsFor(c.Environment)
	if err != nil {
		return GatewayParams{}, err
	}

	if o := c.Overrides; o != nil {
		if o.ExchangeURI != "" {
			params.ExchangeURI = o.ExchangeURI
		}
		if o.AuthURI != "" {
			params.AuthURI = o.AuthURI
		}
		if o.StreamURI != "" {
			params.StreamURI = o.StreamURI
		}
		if o.StreamPrefix != "" {
			params.StreamPrefix = o.StreamPrefix
		}
		if o.ChainID != "" {
			params.ChainID = o.ChainID
		}
	}
	return params, nil
}
