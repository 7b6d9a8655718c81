package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/selfkeeper/internal/flagx"
)

var (
	cliFlags     = []string{"-a", "-n", "-p", "-k", "-i", "-l", "-x"}
	cliBoolFlags = []string{"-x"}
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the identity node
//	-n string   wallet network
//	-p string   injected provider JSON-RPC URL
//	-k string   local keystore path
//	-i int      online check interval (in seconds)
//	-l string   log level
//	-x          disable the injected provider
//
// os.Args is filtered with flagx so the config file flag does not trip the parser.
func parseFlags(cfg *Config) error {
	args := flagx.FilterArgsWithBools(os.Args[1:], cliFlags, cliBoolFlags)

	fs := flag.NewFlagSet("cli", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.Network, "n", cfg.Network, "wallet network")
	fs.StringVar(&cfg.InjectedProviderURL, "p", cfg.InjectedProviderURL, "injected provider JSON-RPC URL")
	fs.StringVar(&cfg.KeystorePath, "k", cfg.KeystorePath, "local keystore path")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.DisableInjectedProvider, "x", cfg.DisableInjectedProvider, "disable injected provider")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	return nil
}
