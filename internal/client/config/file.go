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

// FileConfig is a DTO used exclusively for config file decoding.
// It relies on timex.Duration so intervals can be written either as
// strings like "3s" or as integer nanoseconds.
type FileConfig struct {
	ServerEndpointAddr      string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	Network                 string         `json:"network" yaml:"network"`
	InjectedProviderURL     string         `json:"injected_provider_url" yaml:"injected_provider_url"`
	DisableInjectedProvider *bool          `json:"disable_injected_provider" yaml:"disable_injected_provider"`
	KeystorePath            string         `json:"keystore_path" yaml:"keystore_path"`
	OnlineCheckInterval     timex.Duration `json:"online_check_interval" yaml:"online_check_interval"`
	LogLevel                string         `json:"log_level" yaml:"log_level"`
}

// parseFile overlays Config with values from the file named by -c/-config.
// YAML is used for .yaml/.yml files, JSON otherwise.
func parseFile(cfg *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *FileConfig) apply(cfg *Config) {
	if fc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = fc.ServerEndpointAddr
	}
	if fc.Network != "" {
		cfg.Network = fc.Network
	}
	if fc.InjectedProviderURL != "" {
		cfg.InjectedProviderURL = fc.InjectedProviderURL
	}
	if fc.DisableInjectedProvider != nil {
		cfg.DisableInjectedProvider = *fc.DisableInjectedProvider
	}
	if fc.KeystorePath != "" {
		cfg.KeystorePath = fc.KeystorePath
	}
	if fc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = fc.OnlineCheckInterval.Duration
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
}
