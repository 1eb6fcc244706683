package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSearch()
	c.normalizeDiscovery()
	c.normalizeSeeder()
	c.normalizeImageGen()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSearch() {
	if c.Search.APIKey == "" {
		c.Search.APIKey = strings.TrimSpace(os.Getenv("LOOMVALE_SEARCH_API_KEY"))
	}
	if c.Search.EngineID == "" {
		c.Search.EngineID = strings.TrimSpace(os.Getenv("LOOMVALE_SEARCH_ENGINE_ID"))
	}
	c.Search.BaseURL = strings.TrimRight(strings.TrimSpace(c.Search.BaseURL), "/")
	if c.Search.BaseURL == "" {
		c.Search.BaseURL = defaultSearchBaseURL
	}
}

func (c *Config) normalizeDiscovery() {
	exts := make([]string, 0, len(c.Discovery.Extensions))
	for _, ext := range c.Discovery.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	c.Discovery.Extensions = exts

	hosts := make([]string, 0, len(c.Discovery.TrustedHosts))
	for _, host := range c.Discovery.TrustedHosts {
		host = strings.ToLower(strings.TrimSpace(host))
		host = strings.TrimPrefix(host, "www.")
		if host != "" {
			hosts = append(hosts, host)
		}
	}
	c.Discovery.TrustedHosts = hosts
}

func (c *Config) normalizeSeeder() {
	queries := make([]string, 0, len(c.Seeder.Queries))
	for _, query := range c.Seeder.Queries {
		query = strings.TrimSpace(query)
		if query != "" {
			queries = append(queries, query)
		}
	}
	c.Seeder.Queries = queries
}

func (c *Config) normalizeImageGen() {
	if c.ImageGen.APIKey == "" {
		c.ImageGen.APIKey = strings.TrimSpace(os.Getenv("LOOMVALE_IMAGEGEN_API_KEY"))
	}
	c.ImageGen.BaseURL = strings.TrimSpace(c.ImageGen.BaseURL)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
