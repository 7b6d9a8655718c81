// Package config handles configuration for the identity node: defaults,
// an optional JSON or YAML file, SELFKEEPER_* environment variables and
// finally command-line flags, each layer overriding the previous one.
package config
