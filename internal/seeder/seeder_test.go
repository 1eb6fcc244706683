package seeder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"loomvale/internal/backlog"
	"loomvale/internal/logging"
	"loomvale/internal/retry"
	"loomvale/internal/search"
)

type fakeTitles struct {
	byQuery map[string][]string
	err     map[string]error
	queries []string
}

func (p *fakeTitles) Images(ctx context.Context, query string, limit int) ([]search.Result, error) {
	return nil, errors.New("not used")
}

func (p *fakeTitles) WebTitles(ctx context.Context, query string, limit int) ([]string, error) {
	p.queries = append(p.queries, query)
	if err := p.err[query]; err != nil {
		return nil, err
	}
	return p.byQuery[query], nil
}

func newTestSeeder(t *testing.T, provider search.Provider, cfg Config) *Seeder {
	t.Helper()
	cfg.Retry = retry.Policy{MaxAttempts: 1}
	s := New(provider, cfg, logging.NewNop())
	s.SetSleep(func(context.Context, time.Duration) error { return nil })
	s.SetShuffle(func([]string) {}) // keep configured order
	return s
}

func TestNormalizeTopic(t *testing.T) {
	cases := []struct {
		name  string
		title string
		want  string
	}{
		{"plain", "Lantern Festival Night", "Lantern Festival Night"},
		{"hyphen separator cut", "Frieren Season 2 - Official Site", "Frieren Season 2"},
		{"em-dash separator cut", "Spirited Away — Studio Ghibli", "Spirited Away"},
		{"whitespace trimmed", "  Howl's Moving Castle  ", "Howl's Moving Castle"},
		{"inner hyphen kept", "Spider-Verse art style", "Spider-Verse art style"},
		{"length bounded", strings.Repeat("a", 200), strings.Repeat("a", 120)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeTopic(tc.title); got != tc.want {
				t.Errorf("NormalizeTopic(%q) = %q, want %q", tc.title, got, tc.want)
			}
		})
	}
}

func TestNormalizeTopicBoundsByRunes(t *testing.T) {
	title := strings.Repeat("猫", 150)
	got := NormalizeTopic(title)
	if runes := len([]rune(got)); runes != 120 {
		t.Errorf("got %d runes, want 120", runes)
	}
	if !strings.HasPrefix(got, "猫") {
		t.Errorf("truncation corrupted the string: %q", got[:12])
	}
}

func TestDiscoverTopicsCollectsAndDedupes(t *testing.T) {
	provider := &fakeTitles{byQuery: map[string][]string{
		"anime news": {
			"Frieren Season 2 - Crunchyroll",
			"Frieren Season 2 - Official Site", // same topic after the cut
			"meh",                              // below minimum length
			"Solo Leveling arc recap",
		},
		"cozy art": {
			"Lo-fi study scenes people love",
		},
	}}
	s := newTestSeeder(t, provider, Config{
		Queries: []string{"anime news", "cozy art"},
		Limit:   6,
	})

	topics := s.DiscoverTopics(context.Background())

	want := []string{"Frieren Season 2", "Solo Leveling arc recap", "Lo-fi study scenes people love"}
	if len(topics) != len(want) {
		t.Fatalf("got %d topics %v, want %d", len(topics), topics, len(want))
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("topic[%d] = %q, want %q", i, topics[i], want[i])
		}
	}
}

func TestDiscoverTopicsStopsAtLimit(t *testing.T) {
	provider := &fakeTitles{byQuery: map[string][]string{
		"first":  {"Topic Alpha One", "Topic Bravo Two", "Topic Charlie Three"},
		"second": {"Topic Delta Four"},
	}}
	s := newTestSeeder(t, provider, Config{
		Queries: []string{"first", "second"},
		Limit:   2,
	})

	topics := s.DiscoverTopics(context.Background())
	if len(topics) != 2 {
		t.Fatalf("got %d topics, want 2", len(topics))
	}
	if len(provider.queries) != 1 {
		t.Errorf("issued %d queries, want 1 once the limit is met", len(provider.queries))
	}
}

func TestDiscoverTopicsSkipsFailedQueries(t *testing.T) {
	provider := &fakeTitles{
		byQuery: map[string][]string{"second": {"Topic Alpha One"}},
		err:     map[string]error{"first": errors.New("quota exceeded")},
	}
	s := newTestSeeder(t, provider, Config{
		Queries: []string{"first", "second"},
		Limit:   6,
	})

	topics := s.DiscoverTopics(context.Background())
	if len(topics) != 1 || topics[0] != "Topic Alpha One" {
		t.Errorf("got %v, want the surviving query's topic", topics)
	}
}

func TestDiscoverTopicsBoundsQueriesPerRun(t *testing.T) {
	provider := &fakeTitles{byQuery: map[string][]string{}}
	queries := make([]string, 10)
	for i := range queries {
		queries[i] = strings.Repeat("q", i+1)
	}
	s := newTestSeeder(t, provider, Config{Queries: queries, Limit: 50})

	s.DiscoverTopics(context.Background())
	if len(provider.queries) != maxQueriesPerRun {
		t.Errorf("issued %d queries, want at most %d", len(provider.queries), maxQueriesPerRun)
	}
}

func TestRowsForPrefillsDerivedText(t *testing.T) {
	rows := RowsFor([]string{"Lantern Festival Night", "Demon Slayer finale"})
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for _, row := range rows {
		if row.Status != backlog.StatusReady {
			t.Errorf("row %q status = %q, want ready", row.Topic, row.Status)
		}
		if row.Mode != backlog.ModeDiscover {
			t.Errorf("row %q mode = %q, want discover", row.Topic, row.Mode)
		}
		if row.Tone == "" || row.CaptionPrompt == "" || row.HashtagPrompt == "" {
			t.Errorf("row %q left derived text empty", row.Topic)
		}
	}
	if rows[1].Tone != "Dramatic, bold with emotional depth" {
		t.Errorf("franchise tone = %q", rows[1].Tone)
	}
}
