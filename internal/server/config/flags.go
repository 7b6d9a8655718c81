package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/dmitrijs2005/selfkeeper/internal/flagx"
)

var serverFlags = []string{"-a", "-m", "-D", "-d", "-s", "-t", "-r", "-n", "-l", "-b", "-g", "-e"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     gRPC bind address (e.g. ":50051")
//	-m string     metrics bind address, "" disables
//	-D string     database driver: postgres | sqlite
//	-d string     database DSN
//	-s string     JWT HMAC secret key
//	-t duration   access token lifetime (e.g. "5m")
//	-r duration   refresh token lifetime (e.g. "24h")
//	-n string     accepted network
//	-l string     log level
//	-b string     S3 archive bucket, "" disables
//	-g string     S3 region
//	-e string     S3 base endpoint (e.g. "http://127.0.0.1:9000/")
//
// os.Args is filtered first so the config file flag does not trip the parser.
func parseFlags(cfg *Config) error {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&cfg.GRPCAddr, "a", cfg.GRPCAddr, "address and port to run server")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "address and port for /metrics")
	fs.StringVar(&cfg.DatabaseDriver, "D", cfg.DatabaseDriver, "database driver")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")
	fs.DurationVar(&cfg.AccessTokenTTL, "t", cfg.AccessTokenTTL, "access token lifetime")
	fs.DurationVar(&cfg.RefreshTokenTTL, "r", cfg.RefreshTokenTTL, "refresh token lifetime")
	fs.StringVar(&cfg.Network, "n", cfg.Network, "accepted network")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 archive bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
