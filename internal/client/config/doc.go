// Package config loads runtime configuration for the selfkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file selected via -c or -config.
//  3. Environment: ETH_PROVIDER_URL, then SELFKEEPER_* variables.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// # File schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "network": "goerli",
//	  "injected_provider_url": "http://127.0.0.1:8545",
//	  "keystore_path": "selfkeeper-wallet.json",
//	  "online_check_interval": "3s"
//	}
package config
