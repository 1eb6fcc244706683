// Package testsupport provides shared helpers for package tests:
// temp-dir configs, backlog stores with cleanup, and seeded rows.
package testsupport

import (
	"path/filepath"
	"testing"

	"loomvale/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories and
// test search credentials, then applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Search.APIKey = "test-key"
	cfg.Search.EngineID = "test-engine"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithSearchCredentials overrides the search credentials on a test config.
func WithSearchCredentials(apiKey, engineID string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Search.APIKey = apiKey
		cfg.Search.EngineID = engineID
	}
}

// WithTrustedHosts replaces the discovery allowlist on a test config.
func WithTrustedHosts(hosts ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Discovery.TrustedHosts = hosts
	}
}
