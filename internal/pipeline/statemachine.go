package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"loomvale/internal/backlog"
	"loomvale/internal/content"
	"loomvale/internal/logging"
)

// Discoverer is the asset discovery surface the state machine invokes
// for discover-mode rows.
type Discoverer interface {
	Discover(ctx context.Context, topic string, prior []string) []string
}

// StateMachine computes a row's next status and field writes. It
// mutates the row in memory only; committing the result is the
// runner's job.
type StateMachine struct {
	discoverer  Discoverer
	targetLinks int
	logger      *slog.Logger
}

// NewStateMachine constructs a state machine that considers a
// discover-mode row complete at targetLinks verified URLs.
func NewStateMachine(discoverer Discoverer, targetLinks int, logger *slog.Logger) *StateMachine {
	if targetLinks < 1 {
		targetLinks = 3
	}
	return &StateMachine{
		discoverer:  discoverer,
		targetLinks: targetLinks,
		logger:      logging.WithComponent(logger, "state"),
	}
}

// Process advances one row. Done rows are untouched, and rows without
// topic and mode are left for the seeder. Derived text fields are only
// written when empty, so reprocessing never rewrites operator edits.
func (m *StateMachine) Process(ctx context.Context, row *backlog.Row) {
	if row.IsTerminal() || !row.IsSeeded() {
		return
	}

	m.fillPrompts(row)

	switch row.Mode {
	case backlog.ModeGenerate:
		m.processGenerate(row)
	case backlog.ModeDiscover:
		m.processDiscover(ctx, row)
	default:
		row.SetFailed("unknown mode " + string(row.Mode))
	}
}

func (m *StateMachine) fillPrompts(row *backlog.Row) {
	prompts := content.PromptsFor(row.ID, row.Topic, row.Mode)
	if strings.TrimSpace(row.Tone) == "" {
		row.Tone = prompts.Tone
	}
	if strings.TrimSpace(row.CaptionPrompt) == "" {
		row.CaptionPrompt = prompts.CaptionPrompt
	}
	if strings.TrimSpace(row.HashtagPrompt) == "" {
		row.HashtagPrompt = prompts.HashtagPrompt
	}
	if row.Mode == backlog.ModeGenerate && strings.TrimSpace(row.ImageBrief) == "" {
		row.ImageBrief = prompts.ImageBrief
	}
}

// processGenerate finishes a generate-mode row once its prompt fields
// exist. Actual image generation belongs to a separate pass; this mode
// never touches the discovery engine.
func (m *StateMachine) processGenerate(row *backlog.Row) {
	for _, field := range []string{row.Tone, row.CaptionPrompt, row.HashtagPrompt, row.ImageBrief} {
		if strings.TrimSpace(field) == "" {
			row.Status = backlog.StatusNeedsPrompts
			return
		}
	}
	row.Status = backlog.StatusDone
	row.ErrorMessage = ""
}

func (m *StateMachine) processDiscover(ctx context.Context, row *backlog.Row) {
	links := m.discoverer.Discover(ctx, row.Topic, row.SourceLinks)
	m.logger.Info("discovery finished",
		logging.Int64(logging.FieldRowID, row.ID),
		logging.String("topic", row.Topic),
		logging.Int("links", len(links)),
	)

	switch {
	case len(links) >= m.targetLinks:
		row.SourceLinks = links[:m.targetLinks]
		row.Status = backlog.StatusDone
		row.ErrorMessage = ""
	case len(links) > 0:
		// Partial finds persist and accumulate; the row stays eligible.
		row.SourceLinks = links
		row.Status = backlog.StatusNeedsImages
	default:
		// Nothing found: leave previously stored links untouched.
		row.Status = backlog.StatusNeedsImages
	}
}
