package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/dmitrijs2005/selfkeeper/internal/dbx"
)

// Config holds runtime settings for the identity node.
//
// Fields:
//   - GRPCAddr: bind address for the public gRPC endpoint.
//   - MetricsAddr: bind address for the Prometheus /metrics endpoint; empty disables it.
//   - DatabaseDriver / DatabaseDSN: "postgres" (pgx) or "sqlite" (modernc) and its DSN.
//   - SecretKey: HMAC secret for signing access tokens (HS256). Do not use the default in prod.
//   - AccessTokenTTL / RefreshTokenTTL: token lifetimes.
//   - ChallengeTTL: how long a sign-in challenge may be answered.
//   - Domain: the domain named in sign-in messages.
//   - Network: the only chain accepted for sign-in (mainnet, goerli, sepolia).
//   - AuthRateLimit / AuthBurst: per-account token bucket for Challenge and Authenticate.
//   - S3*: commit archive settings; an empty S3Bucket disables archiving.
type Config struct {
	GRPCAddr        string        `env:"GRPC_ADDR"`
	MetricsAddr     string        `env:"METRICS_ADDR"`
	DatabaseDriver  string        `env:"DB_DRIVER"`
	DatabaseDSN     string        `env:"DB_DSN"`
	SecretKey       string        `env:"SECRET_KEY"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL"`
	ChallengeTTL    time.Duration `env:"CHALLENGE_TTL"`
	Domain          string        `env:"DOMAIN"`
	Network         string        `env:"NETWORK"`
	AuthRateLimit   float64       `env:"AUTH_RATE_LIMIT"`
	AuthBurst       int           `env:"AUTH_BURST"`
	S3AccessKey     string        `env:"S3_ACCESS_KEY"`
	S3SecretKey     string        `env:"S3_SECRET_KEY"`
	S3Bucket        string        `env:"S3_BUCKET"`
	S3Region        string        `env:"S3_REGION"`
	S3BaseEndpoint  string        `env:"S3_BASE_ENDPOINT"`
	LogLevel        string        `env:"LOG_LEVEL"`
}

// DefaultSecretKey is the development access-token secret set by LoadDefaults.
const DefaultSecretKey = "secretKey"

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey in particular must be overridden outside development.
func (c *Config) LoadDefaults() {
	c.GRPCAddr = ":50051"
	c.MetricsAddr = ":9090"
	c.DatabaseDriver = dbx.DriverSQLite
	c.DatabaseDSN = "selfkeeper.db"
	c.SecretKey = DefaultSecretKey
	c.AccessTokenTTL = 5 * time.Minute
	c.RefreshTokenTTL = 24 * time.Hour
	c.ChallengeTTL = 5 * time.Minute
	c.Domain = "selfkeeper.local"
	c.Network = "goerli"
	c.AuthRateLimit = 1
	c.AuthBurst = 5
	c.S3Region = "us-east-1"
	c.LogLevel = "info"
}

// Validate rejects settings the node cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.GRPCAddr == "" {
		errs = append(errs, errors.New("grpc address is required"))
	}
	if c.DatabaseDriver != dbx.DriverPostgres && c.DatabaseDriver != dbx.DriverSQLite {
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.DatabaseDriver))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.SecretKey == DefaultSecretKey && !isDevelopmentDomain(c.Domain) {
		errs = append(errs, fmt.Errorf("default secret key is only allowed for local domains, not %q", c.Domain))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.ChallengeTTL <= 0 {
		errs = append(errs, errors.New("token and challenge lifetimes must be positive"))
	}
	if c.AuthRateLimit <= 0 || c.AuthBurst <= 0 {
		errs = append(errs, errors.New("auth rate limit and burst must be positive"))
	}
	return errors.Join(errs...)
}

// isDevelopmentDomain reports whether domain names this machine or a
// link-local development host (localhost, *.localhost, *.local, loopback IPs).
func isDevelopmentDomain(domain string) bool {
	host := strings.ToLower(strings.TrimSpace(domain))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")

	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// ArchiveEnabled reports whether merges should be archived to S3.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != ""
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file, the environment and command-line flags.
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
