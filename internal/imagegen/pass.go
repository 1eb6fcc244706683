package imagegen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"loomvale/internal/backlog"
	"loomvale/internal/logging"
)

// Store is the backlog surface the generation pass needs.
type Store interface {
	ListRows(ctx context.Context) ([]*backlog.Row, error)
	UpdateRow(ctx context.Context, row *backlog.Row) error
}

// Renderer turns a brief into hosted image URLs.
type Renderer interface {
	RenderBrief(ctx context.Context, brief string) ([]string, error)
}

// Pass renders briefs for generate-mode rows that are content-complete
// but have no generated links yet.
type Pass struct {
	store    Store
	renderer Renderer
	maxRows  int
	logger   *slog.Logger
}

// NewPass constructs a generation pass bounded to maxRows per invocation.
func NewPass(store Store, renderer Renderer, maxRows int, logger *slog.Logger) *Pass {
	if maxRows < 1 {
		maxRows = 10
	}
	return &Pass{
		store:    store,
		renderer: renderer,
		maxRows:  maxRows,
		logger:   logging.WithComponent(logger, "imagegen"),
	}
}

// Run renders pending briefs and persists the returned links. Row
// failures are logged and skipped; the pass only fails when the store
// itself is unreadable.
func (p *Pass) Run(ctx context.Context) (int, error) {
	rows, err := p.store.ListRows(ctx)
	if err != nil {
		return 0, fmt.Errorf("list backlog rows: %w", err)
	}

	rendered := 0
	for _, row := range rows {
		if rendered >= p.maxRows || ctx.Err() != nil {
			break
		}
		if !p.pending(row) {
			continue
		}

		urls, err := p.renderer.RenderBrief(ctx, row.ImageBrief)
		if err != nil {
			p.logger.Error("brief rendering failed",
				logging.Int64(logging.FieldRowID, row.ID),
				logging.String("topic", row.Topic),
				logging.Error(err),
			)
			continue
		}

		scratch := *row
		scratch.GeneratedLinks = urls
		if err := p.store.UpdateRow(ctx, &scratch); err != nil {
			p.logger.Error("persisting generated links failed",
				logging.Int64(logging.FieldRowID, row.ID),
				logging.Error(err),
			)
			continue
		}
		rendered++
		p.logger.Info("brief rendered",
			logging.Int64(logging.FieldRowID, row.ID),
			logging.String("topic", row.Topic),
			logging.Int("images", len(urls)),
		)
	}
	return rendered, nil
}

func (p *Pass) pending(row *backlog.Row) bool {
	return row.Mode == backlog.ModeGenerate &&
		row.Status == backlog.StatusDone &&
		strings.TrimSpace(row.ImageBrief) != "" &&
		len(row.GeneratedLinks) == 0
}
