package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/selfkeeper/internal/caip"
)

// Config holds runtime settings for the selfkeeper CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the identity node gRPC endpoint.
//   - Network: chain the wallet selector is configured for (mainnet, goerli, sepolia).
//   - InjectedProviderURL: Ethereum JSON-RPC endpoint offered as the injected wallet.
//   - DisableInjectedProvider: hide the injected wallet from the selector.
//   - KeystorePath: encrypted local wallet; registered as a provider option when the file exists.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - LogLevel: slog level for the stderr logger.
type Config struct {
	ServerEndpointAddr      string        `env:"SERVER_ADDR"`
	Network                 string        `env:"NETWORK"`
	InjectedProviderURL     string        `env:"PROVIDER_URL"`
	DisableInjectedProvider bool          `env:"DISABLE_INJECTED"`
	KeystorePath            string        `env:"KEYSTORE"`
	OnlineCheckInterval     time.Duration `env:"ONLINE_CHECK_INTERVAL"`
	LogLevel                string        `env:"LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.Network = "goerli"
	c.KeystorePath = "selfkeeper-wallet.json"
	c.OnlineCheckInterval = 3 * time.Second
	c.LogLevel = "warn"
}

// Validate rejects settings the CLI cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.ServerEndpointAddr == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	if _, err := caip.ChainID(c.Network); err != nil {
		errs = append(errs, err)
	}
	if c.OnlineCheckInterval <= 0 {
		errs = append(errs, errors.New("online check interval must be positive"))
	}
	return errors.Join(errs...)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file, the environment and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
