package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"loomvale/internal/backlog"
	"loomvale/internal/config"
	"loomvale/internal/discovery"
	"loomvale/internal/logging"
	"loomvale/internal/notifications"
	"loomvale/internal/pipeline"
	"loomvale/internal/retry"
	"loomvale/internal/search"
	"loomvale/internal/seeder"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
}

func (c *commandContext) openStore(cfg *config.Config) (*backlog.Store, error) {
	store, err := backlog.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open backlog store: %w", err)
	}
	return store, nil
}

func searchHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: time.Duration(cfg.Search.RequestTimeout) * time.Second}
}

func retryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Retry.BaseDelayMS) * time.Millisecond,
		Increment:   time.Duration(cfg.Retry.IncrementMS) * time.Millisecond,
	}
}

func buildRunner(cfg *config.Config, store *backlog.Store, logger *slog.Logger) (*pipeline.Runner, error) {
	provider, err := search.New(cfg.Search.APIKey, cfg.Search.EngineID, cfg.Search.BaseURL,
		search.WithHTTPClient(searchHTTPClient(cfg)))
	if err != nil {
		return nil, fmt.Errorf("build search client: %w", err)
	}

	validator := discovery.NewValidator(discovery.ValidatorConfig{
		Extensions:              cfg.Discovery.Extensions,
		TrustedHosts:            cfg.Discovery.TrustedHosts,
		MinHeight:               cfg.Discovery.MinHeight,
		MinBytes:                cfg.Discovery.MinBytes,
		FetchTimeout:            time.Duration(cfg.Discovery.FetchTimeout) * time.Second,
		AcceptUnverifiedTrusted: cfg.Discovery.AcceptUnverifiedTrusted,
	}, logger)

	engine := discovery.NewEngine(provider, validator, discovery.EngineConfig{
		TargetLinks: cfg.Discovery.TargetLinks,
		ResultLimit: cfg.Search.ResultLimit,
		QueryPacing: time.Duration(cfg.Discovery.QueryPacingMS) * time.Millisecond,
		Retry:       retryPolicy(cfg),
	}, logger)

	machine := pipeline.NewStateMachine(engine, cfg.Discovery.TargetLinks, logger)

	var topicSeeder *seeder.Seeder
	if cfg.Seeder.Enabled {
		topicSeeder = seeder.New(provider, seeder.Config{
			Queries:        cfg.Seeder.Queries,
			Limit:          cfg.Seeder.Limit,
			TitlesPerQuery: cfg.Seeder.TitlesPerQuery,
			QueryPacing:    time.Duration(cfg.Seeder.QueryPacingMS) * time.Millisecond,
			Retry:          retryPolicy(cfg),
		}, logger)
	}

	notifier := notifications.NewService(cfg.Notifications)

	return pipeline.NewRunner(store, machine, topicSeeder, notifier, pipeline.RunnerConfig{
		MaxRowsPerRun: cfg.Workflow.MaxRowsPerRun,
		RowPacing:     time.Duration(cfg.Workflow.RowPacingMS) * time.Millisecond,
	}, logger), nil
}
