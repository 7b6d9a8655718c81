package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":50051", c.GRPCAddr)
	assert.Equal(t, ":9090", c.MetricsAddr)
	assert.Equal(t, "sqlite", c.DatabaseDriver)
	assert.Equal(t, "selfkeeper.db", c.DatabaseDSN)
	assert.Equal(t, 5*time.Minute, c.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, c.RefreshTokenTTL)
	assert.Equal(t, 5*time.Minute, c.ChallengeTTL)
	assert.Equal(t, "goerli", c.Network)
	assert.False(t, c.ArchiveEnabled())
	assert.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "no grpc addr", mutate: func(c *Config) { c.GRPCAddr = "" }},
		{name: "bad driver", mutate: func(c *Config) { c.DatabaseDriver = "mysql" }},
		{name: "no dsn", mutate: func(c *Config) { c.DatabaseDSN = "" }},
		{name: "no secret", mutate: func(c *Config) { c.SecretKey = "" }},
		{name: "zero ttl", mutate: func(c *Config) { c.ChallengeTTL = 0 }},
		{name: "zero burst", mutate: func(c *Config) { c.AuthBurst = 0 }},
		{name: "default secret on public domain", mutate: func(c *Config) { c.Domain = "id.example.org" }},
		{name: "default secret on public domain with port", mutate: func(c *Config) { c.Domain = "id.example.org:443" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadConfig_Layering(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempFile(t, "cfg.yaml", "grpc_addr: \":7000\"\nnetwork: sepolia\nchallenge_ttl: 2m\n")
	t.Setenv("SELFKEEPER_NETWORK", "mainnet")
	t.Setenv("SELFKEEPER_DB_DSN", "from-env.db")

	os.Args = []string{"server", "-c", path, "-d", "from-flag.db"}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.GRPCAddr, "file overrides default")
	assert.Equal(t, 2*time.Minute, cfg.ChallengeTTL)
	assert.Equal(t, "mainnet", cfg.Network, "env overrides file")
	assert.Equal(t, "from-flag.db", cfg.DatabaseDSN, "flag overrides env")
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfig_InvalidFinalConfig(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"server", "-D", "oracle"}

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate_DefaultSecretKey(t *testing.T) {
	tests := []struct {
		domain  string
		secret  string
		wantErr bool
	}{
		{domain: "selfkeeper.local", secret: DefaultSecretKey},
		{domain: "localhost", secret: DefaultSecretKey},
		{domain: "localhost:8080", secret: DefaultSecretKey},
		{domain: "node.localhost", secret: DefaultSecretKey},
		{domain: "127.0.0.1:50051", secret: DefaultSecretKey},
		{domain: "[::1]:50051", secret: DefaultSecretKey},
		{domain: "id.example.org", secret: DefaultSecretKey, wantErr: true},
		{domain: "local.example.org", secret: DefaultSecretKey, wantErr: true},
		{domain: "10.0.0.7", secret: DefaultSecretKey, wantErr: true},
		{domain: "id.example.org", secret: "a-real-secret"},
	}

	for _, tt := range tests {
		t.Run(tt.domain+"/"+tt.secret, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			c.Domain = tt.domain
			c.SecretKey = tt.secret

			err := c.Validate()
			if tt.wantErr {
				assert.ErrorContains(t, err, "default secret key")
				return
			}
			assert.NoError(t, err)
		})
	}
}
