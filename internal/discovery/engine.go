package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"loomvale/internal/logging"
	"loomvale/internal/retry"
	"loomvale/internal/search"
)

// queryTemplates are the ranked query phrasings for one topic, most
// specific and official-leaning first.
var queryTemplates = []string{
	"%s official poster OR key visual 4K vertical",
	"%s portrait poster high resolution",
	"%s promotional art vertical poster",
}

// QueriesFor builds the ordered query list for a topic.
func QueriesFor(topic string) []string {
	queries := make([]string, len(queryTemplates))
	for i, template := range queryTemplates {
		queries[i] = fmt.Sprintf(template, topic)
	}
	return queries
}

// EngineConfig carries discovery bounds and pacing.
type EngineConfig struct {
	// TargetLinks is the accepted-candidate count that ends a call early.
	TargetLinks int
	// ResultLimit is the per-query search page size.
	ResultLimit int
	// QueryPacing is the fixed delay between queries, applied whether or
	// not the previous query needed retries.
	QueryPacing time.Duration
	Retry       retry.Policy
}

// Engine assembles verified portrait links for a topic from ranked
// search queries.
type Engine struct {
	provider  search.Provider
	validator *Validator
	cfg       EngineConfig
	sleep     func(context.Context, time.Duration) error
	logger    *slog.Logger
}

// NewEngine constructs a discovery engine. A nil sleep uses the real clock.
func NewEngine(provider search.Provider, validator *Validator, cfg EngineConfig, logger *slog.Logger) *Engine {
	if cfg.TargetLinks < 1 {
		cfg.TargetLinks = 3
	}
	if cfg.ResultLimit < 1 {
		cfg.ResultLimit = 10
	}
	return &Engine{
		provider:  provider,
		validator: validator,
		cfg:       cfg,
		sleep:     retry.Wait,
		logger:    logging.WithComponent(logger, "discovery"),
	}
}

// SetSleep overrides the pacing suspension point. Tests inject a
// recorder here.
func (e *Engine) SetSleep(sleep func(context.Context, time.Duration) error) {
	if sleep != nil {
		e.sleep = sleep
	}
}

// Discover returns up to TargetLinks verified portrait URLs for the
// topic. Prior links survive into the result set first, so partial
// finds accumulate across runs instead of being rediscovered. The call
// never fails: query errors contribute zero candidates and exhaustion
// returns whatever was accepted.
func (e *Engine) Discover(ctx context.Context, topic string, prior []string) []string {
	seen := make(map[string]struct{})
	accepted := make([]string, 0, e.cfg.TargetLinks)
	for _, link := range prior {
		if _, dup := seen[link]; dup || link == "" {
			continue
		}
		seen[link] = struct{}{}
		accepted = append(accepted, link)
		if len(accepted) == e.cfg.TargetLinks {
			return accepted
		}
	}

	for i, query := range QueriesFor(topic) {
		if i > 0 {
			if err := e.sleep(ctx, e.cfg.QueryPacing); err != nil {
				return accepted
			}
		}
		if ctx.Err() != nil {
			return accepted
		}

		results, err := retry.DoValue(ctx, e.cfg.Retry, func(ctx context.Context) ([]search.Result, error) {
			return e.provider.Images(ctx, query, e.cfg.ResultLimit)
		})
		if err != nil {
			// A failed query yields nothing; the next phrasing may still
			// reach the target.
			e.logger.Warn("image query failed",
				logging.String("query", query),
				logging.Error(err),
			)
			continue
		}

		for _, result := range results {
			if _, dup := seen[result.URL]; dup || result.URL == "" {
				continue
			}
			seen[result.URL] = struct{}{}

			outcome := e.validator.Validate(ctx, Candidate{
				URL:    result.URL,
				Host:   result.Host,
				Width:  result.Width,
				Height: result.Height,
			})
			if !outcome.Accepted {
				e.logger.Debug("candidate rejected",
					logging.String("url", result.URL),
					logging.String("reason", outcome.Reason),
				)
				continue
			}
			e.logger.Debug("candidate accepted",
				logging.String("url", result.URL),
				logging.String("reason", outcome.Reason),
			)
			accepted = append(accepted, result.URL)
			if len(accepted) == e.cfg.TargetLinks {
				return accepted
			}
		}
	}
	return accepted
}
