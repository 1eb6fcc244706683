// Package seeder discovers fresh topics for blank backlog rows. Topics
// come from curated web queries; result titles are normalized into
// short topic strings and appended as ready discover-mode rows.
package seeder

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"loomvale/internal/backlog"
	"loomvale/internal/content"
	"loomvale/internal/logging"
	"loomvale/internal/retry"
	"loomvale/internal/search"
)

// maxTopicLength caps normalized topic strings, in runes.
const maxTopicLength = 120

// minTopicLength filters out fragments too short to be a usable topic.
const minTopicLength = 6

// maxQueriesPerRun bounds how many seed queries one run issues.
const maxQueriesPerRun = 6

// Config carries seeding bounds and pacing.
type Config struct {
	Queries        []string
	Limit          int
	TitlesPerQuery int
	QueryPacing    time.Duration
	Retry          retry.Policy
}

// Seeder turns web search titles into new backlog topics.
type Seeder struct {
	provider search.Provider
	cfg      Config
	sleep    func(context.Context, time.Duration) error
	shuffle  func([]string)
	logger   *slog.Logger
}

// New constructs a Seeder.
func New(provider search.Provider, cfg Config, logger *slog.Logger) *Seeder {
	if cfg.Limit < 1 {
		cfg.Limit = 6
	}
	if cfg.TitlesPerQuery < 1 {
		cfg.TitlesPerQuery = 6
	}
	return &Seeder{
		provider: provider,
		cfg:      cfg,
		sleep:    retry.Wait,
		shuffle: func(queries []string) {
			rand.Shuffle(len(queries), func(i, j int) {
				queries[i], queries[j] = queries[j], queries[i]
			})
		},
		logger: logging.WithComponent(logger, "seeder"),
	}
}

// SetSleep overrides the pacing suspension point for tests.
func (s *Seeder) SetSleep(sleep func(context.Context, time.Duration) error) {
	if sleep != nil {
		s.sleep = sleep
	}
}

// SetShuffle overrides query shuffling so tests get a fixed order.
func (s *Seeder) SetShuffle(shuffle func([]string)) {
	if shuffle != nil {
		s.shuffle = shuffle
	}
}

// NormalizeTopic reduces a scraped page title to a topic string: NFC
// normalization, cut at the first hyphen or em-dash separator, trimmed,
// bounded in length.
func NormalizeTopic(title string) string {
	title = norm.NFC.String(strings.TrimSpace(title))
	for _, separator := range []string{" - ", " — "} {
		if idx := strings.Index(title, separator); idx >= 0 {
			title = title[:idx]
		}
	}
	title = strings.TrimSpace(title)
	runes := []rune(title)
	if len(runes) > maxTopicLength {
		title = strings.TrimSpace(string(runes[:maxTopicLength]))
	}
	return title
}

// DiscoverTopics collects up to Limit fresh topics from the configured
// seed queries. Query failures contribute nothing and never abort the
// collection.
func (s *Seeder) DiscoverTopics(ctx context.Context) []string {
	queries := append([]string(nil), s.cfg.Queries...)
	s.shuffle(queries)
	if len(queries) > maxQueriesPerRun {
		queries = queries[:maxQueriesPerRun]
	}

	pool := make([]string, 0, s.cfg.Limit)
	seen := make(map[string]struct{})
	for i, query := range queries {
		if i > 0 {
			if err := s.sleep(ctx, s.cfg.QueryPacing); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		titles, err := retry.DoValue(ctx, s.cfg.Retry, func(ctx context.Context) ([]string, error) {
			return s.provider.WebTitles(ctx, query, s.cfg.TitlesPerQuery)
		})
		if err != nil {
			s.logger.Warn("seed query failed",
				logging.String("query", query),
				logging.Error(err),
			)
			continue
		}

		for _, title := range titles {
			topic := NormalizeTopic(title)
			if len([]rune(topic)) < minTopicLength {
				continue
			}
			if _, dup := seen[topic]; dup {
				continue
			}
			seen[topic] = struct{}{}
			pool = append(pool, topic)
		}
		if len(pool) >= s.cfg.Limit {
			break
		}
	}

	if len(pool) > s.cfg.Limit {
		pool = pool[:s.cfg.Limit]
	}
	return pool
}

// RowsFor builds ready discover-mode rows for the given topics with
// derived text prefilled.
func RowsFor(topics []string) []*backlog.Row {
	rows := make([]*backlog.Row, 0, len(topics))
	for _, topic := range topics {
		tone := content.ToneFor(topic)
		rows = append(rows, &backlog.Row{
			Status:        backlog.StatusReady,
			Topic:         topic,
			Mode:          backlog.ModeDiscover,
			Tone:          tone,
			CaptionPrompt: content.CaptionPrompt(topic, tone),
			HashtagPrompt: content.HashtagPrompt(topic),
		})
	}
	return rows
}
