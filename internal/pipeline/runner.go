package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"loomvale/internal/backlog"
	"loomvale/internal/config"
	"loomvale/internal/logging"
	"loomvale/internal/notifications"
	"loomvale/internal/retry"
	"loomvale/internal/seeder"
)

// Store is the backlog persistence surface the runner needs.
type Store interface {
	ListRows(ctx context.Context) ([]*backlog.Row, error)
	UpdateRow(ctx context.Context, row *backlog.Row) error
	AppendRows(ctx context.Context, rows []*backlog.Row) error
}

// RunnerConfig carries per-run bounds and pacing.
type RunnerConfig struct {
	// MaxRowsPerRun bounds how many rows one invocation processes.
	MaxRowsPerRun int
	// RowPacing is the fixed delay between rows.
	RowPacing time.Duration
}

// Summary describes one pipeline run.
type Summary struct {
	RunID     string
	Processed int
	Completed int
	NeedsWork int
	Failed    int
	Seeded    int
	Duration  time.Duration
}

// Runner iterates the backlog and applies the state machine to each
// eligible row. Each row's outcome is committed as one atomic store
// write; per-row failures never abort the run.
type Runner struct {
	store    Store
	machine  *StateMachine
	seeder   *seeder.Seeder
	notifier notifications.Service
	cfg      RunnerConfig
	sleep    func(context.Context, time.Duration) error
	logger   *slog.Logger
}

// NewRunner constructs a pipeline runner. The seeder may be nil when
// topic seeding is disabled.
func NewRunner(store Store, machine *StateMachine, topicSeeder *seeder.Seeder, notifier notifications.Service, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if cfg.MaxRowsPerRun < 1 {
		cfg.MaxRowsPerRun = 25
	}
	if notifier == nil {
		notifier = notifications.NewService(config.Notifications{})
	}
	return &Runner{
		store:    store,
		machine:  machine,
		seeder:   topicSeeder,
		notifier: notifier,
		cfg:      cfg,
		sleep:    retry.Wait,
		logger:   logging.WithComponent(logger, "runner"),
	}
}

// SetSleep overrides the row pacing suspension point for tests.
func (r *Runner) SetSleep(sleep func(context.Context, time.Duration) error) {
	if sleep != nil {
		r.sleep = sleep
	}
}

// Run performs one pass over the backlog. It returns an error only for
// run-level failures such as an unreadable store; row-level failures
// surface in the summary and on the rows themselves.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	started := time.Now()
	summary := Summary{RunID: uuid.NewString()}
	logger := r.logger.With(logging.String(logging.FieldRunID, summary.RunID))

	rows, err := r.store.ListRows(ctx)
	if err != nil {
		return summary, fmt.Errorf("list backlog rows: %w", err)
	}

	eligible := 0
	blankFound := false
	for _, row := range rows {
		if row.Eligible() {
			eligible++
		}
		if !row.IsSeeded() && !row.IsTerminal() {
			blankFound = true
		}
	}
	logger.Info("run started",
		logging.Int("rows", len(rows)),
		logging.Int("eligible", eligible),
	)
	if eligible > 0 {
		if err := r.notifier.NotifyRunStarted(ctx, eligible); err != nil {
			logger.Warn("run-started notification failed", logging.Error(err))
		}
	}

	for _, row := range rows {
		if !row.Eligible() {
			continue
		}
		if summary.Processed >= r.cfg.MaxRowsPerRun {
			logger.Info("row budget reached", logging.Int("max_rows", r.cfg.MaxRowsPerRun))
			break
		}
		// A run deadline stops starting new rows; the row in flight
		// still completes its single write.
		if ctx.Err() != nil {
			logger.Warn("run deadline reached, stopping early")
			break
		}
		if summary.Processed > 0 {
			if err := r.sleep(ctx, r.cfg.RowPacing); err != nil {
				break
			}
		}

		summary.Processed++
		r.processRow(ctx, logger, row, &summary)
	}

	if blankFound && r.seeder != nil && ctx.Err() == nil {
		summary.Seeded = r.seedTopics(ctx, logger)
	}

	summary.Duration = time.Since(started)
	logger.Info("run completed",
		logging.Int("processed", summary.Processed),
		logging.Int("completed", summary.Completed),
		logging.Int("failed", summary.Failed),
		logging.Int("seeded", summary.Seeded),
		logging.Duration("duration", summary.Duration),
	)
	if summary.Processed > 0 || summary.Seeded > 0 {
		if err := r.notifier.NotifyRunCompleted(ctx, summary.Processed, summary.Completed, summary.Failed, summary.Duration); err != nil {
			logger.Warn("run-completed notification failed", logging.Error(err))
		}
	}
	return summary, nil
}

// processRow computes the row's outcome on a scratch copy and commits
// it in one write. Old and new fields never mix: either the full
// outcome lands or the stored row keeps its previous state.
func (r *Runner) processRow(ctx context.Context, logger *slog.Logger, row *backlog.Row, summary *Summary) {
	rowLogger := logger.With(logging.Int64(logging.FieldRowID, row.ID))

	scratch := *row
	if err := r.advance(ctx, &scratch); err != nil {
		rowLogger.Error("row processing failed",
			logging.String("topic", row.Topic),
			logging.Error(err),
		)
		r.markFailed(ctx, rowLogger, row, err.Error())
		summary.Failed++
		return
	}

	if err := r.store.UpdateRow(ctx, &scratch); err != nil {
		rowLogger.Error("row write failed",
			logging.String(logging.FieldEventType, "store_write_failed"),
			logging.Error(err),
		)
		r.markFailed(ctx, rowLogger, row, "store write failed: "+err.Error())
		summary.Failed++
		return
	}

	switch scratch.Status {
	case backlog.StatusDone:
		summary.Completed++
	case backlog.StatusError:
		summary.Failed++
	default:
		summary.NeedsWork++
	}
	rowLogger.Info("row advanced",
		logging.String("topic", scratch.Topic),
		logging.String("status", string(scratch.Status)),
	)
}

// advance runs the state machine, converting panics into per-row errors
// so one poisoned row cannot abort the run.
func (r *Runner) advance(ctx context.Context, row *backlog.Row) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic processing row %d: %v", row.ID, rec)
		}
	}()
	r.machine.Process(ctx, row)
	return nil
}

func (r *Runner) markFailed(ctx context.Context, logger *slog.Logger, row *backlog.Row, message string) {
	failed := *row
	failed.SetFailed(message)
	if err := r.store.UpdateRow(ctx, &failed); err != nil {
		logger.Error("failed to mark row as errored", logging.Error(err))
	}
	if err := r.notifier.NotifyRowError(ctx, row.ID, row.Topic, message); err != nil {
		logger.Warn("row-error notification failed", logging.Error(err))
	}
}

func (r *Runner) seedTopics(ctx context.Context, logger *slog.Logger) int {
	topics := r.seeder.DiscoverTopics(ctx)
	if len(topics) == 0 {
		return 0
	}
	newRows := seeder.RowsFor(topics)
	if err := r.store.AppendRows(ctx, newRows); err != nil {
		logger.Error("appending seeded rows failed", logging.Error(err))
		return 0
	}
	logger.Info("seeded new topic rows",
		logging.Int("count", len(newRows)),
		logging.String("topics", strings.Join(topics, "; ")),
	)
	if err := r.notifier.NotifySeeded(ctx, len(newRows)); err != nil {
		logger.Warn("seed notification failed", logging.Error(err))
	}
	return len(newRows)
}
