package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/selfkeeper/internal/flagx"
	"github.com/dmitrijs2005/selfkeeper/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the node configuration. Intervals use
// timex.Duration so both "5m" and integer nanoseconds are accepted.
// Missing keys keep the value from the previous layer.
type FileConfig struct {
	GRPCAddr        string         `json:"grpc_addr" yaml:"grpc_addr"`
	MetricsAddr     string         `json:"metrics_addr" yaml:"metrics_addr"`
	DatabaseDriver  string         `json:"database_driver" yaml:"database_driver"`
	DatabaseDSN     string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey       string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenTTL  timex.Duration `json:"access_token_ttl" yaml:"access_token_ttl"`
	RefreshTokenTTL timex.Duration `json:"refresh_token_ttl" yaml:"refresh_token_ttl"`
	ChallengeTTL    timex.Duration `json:"challenge_ttl" yaml:"challenge_ttl"`
	Domain          string         `json:"domain" yaml:"domain"`
	Network         string         `json:"network" yaml:"network"`
	AuthRateLimit   float64        `json:"auth_rate_limit" yaml:"auth_rate_limit"`
	AuthBurst       int            `json:"auth_burst" yaml:"auth_burst"`
	S3AccessKey     string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey     string         `json:"s3_secret_key" yaml:"s3_secret_key"`
	S3Bucket        string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region        string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	LogLevel        string         `json:"log_level" yaml:"log_level"`
}

// parseFile loads the file named by -c/-config, if any. The extension picks
// the decoder: .yaml/.yml for YAML, anything else for JSON.
func parseFile(cfg *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc, err := decodeFile(path, data)
	if err != nil {
		return err
	}
	fc.apply(cfg)
	return nil
}

func decodeFile(path string, data []byte) (*FileConfig, error) {
	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, fc); err != nil {
			return nil, fmt.Errorf("decode yaml config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, fc); err != nil {
			return nil, fmt.Errorf("decode json config: %w", err)
		}
	}
	return fc, nil
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.GRPCAddr, fc.GRPCAddr)
	setString(&cfg.MetricsAddr, fc.MetricsAddr)
	setString(&cfg.DatabaseDriver, fc.DatabaseDriver)
	setString(&cfg.DatabaseDSN, fc.DatabaseDSN)
	setString(&cfg.SecretKey, fc.SecretKey)
	if fc.AccessTokenTTL.Duration > 0 {
		cfg.AccessTokenTTL = fc.AccessTokenTTL.Duration
	}
	if fc.RefreshTokenTTL.Duration > 0 {
		cfg.RefreshTokenTTL = fc.RefreshTokenTTL.Duration
	}
	if fc.ChallengeTTL.Duration > 0 {
		cfg.ChallengeTTL = fc.ChallengeTTL.Duration
	}
	setString(&cfg.Domain, fc.Domain)
	setString(&cfg.Network, fc.Network)
	if fc.AuthRateLimit > 0 {
		cfg.AuthRateLimit = fc.AuthRateLimit
	}
	if fc.AuthBurst > 0 {
		cfg.AuthBurst = fc.AuthBurst
	}
	setString(&cfg.S3AccessKey, fc.S3AccessKey)
	setString(&cfg.S3SecretKey, fc.S3SecretKey)
	setString(&cfg.S3Bucket, fc.S3Bucket)
	setString(&cfg.S3Region, fc.S3Region)
	setString(&cfg.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&cfg.LogLevel, fc.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
