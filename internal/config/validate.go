package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Validation failures are
// fatal: the pipeline refuses to process any row with a broken config.
func (c *Config) Validate() error {
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateDiscovery(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateSeeder(); err != nil {
		return err
	}
	if err := c.validateImageGen(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/loomvale/config.toml"
		}
		return fmt.Errorf("search.api_key is required. Set LOOMVALE_SEARCH_API_KEY env var or edit %s (create with 'loomvale config init')", defaultPath)
	}
	if c.Search.EngineID == "" {
		return errors.New("search.engine_id is required (Programmable Search Engine ID)")
	}
	if strings.TrimSpace(c.Search.BaseURL) == "" {
		return errors.New("search.base_url must be set")
	}
	if c.Search.RequestTimeout <= 0 {
		return errors.New("search.request_timeout must be positive")
	}
	if c.Search.ResultLimit < 1 || c.Search.ResultLimit > 10 {
		return errors.New("search.result_limit must be between 1 and 10")
	}
	return nil
}

func (c *Config) validateDiscovery() error {
	if c.Discovery.TargetLinks < 1 {
		return errors.New("discovery.target_links must be at least 1")
	}
	if c.Discovery.MinHeight < 1 {
		return errors.New("discovery.min_height must be positive")
	}
	if c.Discovery.MinBytes < 1 {
		return errors.New("discovery.min_bytes must be positive")
	}
	if c.Discovery.FetchTimeout <= 0 {
		return errors.New("discovery.fetch_timeout must be positive")
	}
	if len(c.Discovery.Extensions) == 0 {
		return errors.New("discovery.extensions must not be empty")
	}
	for _, ext := range c.Discovery.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("discovery.extensions entry %q must start with a dot", ext)
		}
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be at least 1")
	}
	if c.Retry.BaseDelayMS < 0 || c.Retry.IncrementMS < 0 {
		return errors.New("retry delays must not be negative")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.MaxRowsPerRun < 1 {
		return errors.New("workflow.max_rows_per_run must be at least 1")
	}
	if c.Workflow.RowPacingMS < 0 {
		return errors.New("workflow.row_pacing_ms must not be negative")
	}
	if c.Workflow.RunTimeout < 0 {
		return errors.New("workflow.run_timeout must not be negative")
	}
	return nil
}

func (c *Config) validateSeeder() error {
	if !c.Seeder.Enabled {
		return nil
	}
	if c.Seeder.Limit < 1 {
		return errors.New("seeder.limit must be at least 1 when seeding is enabled")
	}
	if c.Seeder.TitlesPerQuery < 1 || c.Seeder.TitlesPerQuery > 10 {
		return errors.New("seeder.titles_per_query must be between 1 and 10")
	}
	if len(c.Seeder.Queries) == 0 {
		return errors.New("seeder.queries must not be empty when seeding is enabled")
	}
	return nil
}

func (c *Config) validateImageGen() error {
	if !c.ImageGen.Enabled {
		return nil
	}
	if strings.TrimSpace(c.ImageGen.APIKey) == "" {
		return errors.New("imagegen.api_key must be set when imagegen.enabled is true")
	}
	if strings.TrimSpace(c.ImageGen.Model) == "" {
		return errors.New("imagegen.model must be set when imagegen.enabled is true")
	}
	if c.ImageGen.ImagesPerRow < 1 || c.ImageGen.ImagesPerRow > 10 {
		return errors.New("imagegen.images_per_row must be between 1 and 10")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if strings.TrimSpace(c.Notifications.NtfyTopic) == "" {
		return nil
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}
