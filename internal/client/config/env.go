package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every selfkeeper environment variable.
const EnvPrefix = "SELFKEEPER_"

// walletEnv holds variables shared with other Ethereum tooling, read without
// the selfkeeper prefix.
type walletEnv struct {
	ProviderURL string `env:"ETH_PROVIDER_URL"`
}

// parseEnv overlays ETH_PROVIDER_URL and then SELFKEEPER_* variables, so
// SELFKEEPER_PROVIDER_URL wins over the shared one.
func parseEnv(cfg *Config) error {
	var we walletEnv
	if err := env.Parse(&we); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if we.ProviderURL != "" {
		cfg.InjectedProviderURL = we.ProviderURL
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
