package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Search contains configuration for the Google Programmable Search API.
type Search struct {
	APIKey         string `toml:"api_key"`
	EngineID       string `toml:"engine_id"`
	BaseURL        string `toml:"base_url"`
	RequestTimeout int    `toml:"request_timeout"`
	ResultLimit    int    `toml:"result_limit"`
}

// Discovery contains the candidate validation and pacing policy for
// portrait-link discovery.
type Discovery struct {
	TargetLinks   int `toml:"target_links"`
	MinHeight     int `toml:"min_height"`
	MinBytes      int `toml:"min_bytes"`
	FetchTimeout  int `toml:"fetch_timeout"`
	QueryPacingMS int `toml:"query_pacing_ms"`
	// AcceptUnverifiedTrusted keeps a trusted-host candidate whose bytes
	// could not be fetched or decoded. Extension and allowlist checks
	// still apply.
	AcceptUnverifiedTrusted bool     `toml:"accept_unverified_trusted"`
	Extensions              []string `toml:"extensions"`
	TrustedHosts            []string `toml:"trusted_hosts"`
}

// Retry contains the bounded-retry policy for transient provider failures.
type Retry struct {
	MaxAttempts int `toml:"max_attempts"`
	BaseDelayMS int `toml:"base_delay_ms"`
	IncrementMS int `toml:"increment_ms"`
}

// Workflow contains per-run bounds and pacing.
type Workflow struct {
	MaxRowsPerRun int `toml:"max_rows_per_run"`
	RowPacingMS   int `toml:"row_pacing_ms"`
	RunTimeout    int `toml:"run_timeout"`
}

// Seeder contains topic seeding behavior for blank backlog rows.
type Seeder struct {
	Enabled        bool     `toml:"enabled"`
	Limit          int      `toml:"limit"`
	TitlesPerQuery int      `toml:"titles_per_query"`
	QueryPacingMS  int      `toml:"query_pacing_ms"`
	Queries        []string `toml:"queries"`
}

// ImageGen contains configuration for the optional image generation backend.
type ImageGen struct {
	Enabled      bool   `toml:"enabled"`
	APIKey       string `toml:"api_key"`
	BaseURL      string `toml:"base_url"`
	Model        string `toml:"model"`
	Size         string `toml:"size"`
	ImagesPerRow int    `toml:"images_per_row"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunSummary     bool   `toml:"run_summary"`
	Errors         bool   `toml:"errors"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the Loomvale pipeline.
//
// Sections by subsystem:
//   - Paths: data and log directories
//   - Search: Google Programmable Search credentials and limits
//   - Discovery: portrait-link validation thresholds and allowlist
//   - Retry: transient-failure retry policy
//   - Workflow: per-run row bounds and pacing
//   - Seeder: topic discovery for blank rows
//   - ImageGen: optional image generation backend
//   - Notifications: ntfy push settings
//   - Logging: format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Search        Search        `toml:"search"`
	Discovery     Discovery     `toml:"discovery"`
	Retry         Retry         `toml:"retry"`
	Workflow      Workflow      `toml:"workflow"`
	Seeder        Seeder        `toml:"seeder"`
	ImageGen      ImageGen      `toml:"imagegen"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/loomvale/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("loomvale.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline needs to run.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite backlog database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "backlog.db")
}

// SampleConfig returns the embedded commented sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// WriteSample writes the sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return filepath.Abs(path)
}
