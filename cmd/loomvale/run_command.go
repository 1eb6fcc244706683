package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process the backlog once",
		Long: "Runs one pipeline pass: advances every eligible backlog row, " +
			"discovers portrait links for discover-mode rows, and seeds new " +
			"topics when blank rows exist.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}

			lockPath := filepath.Join(cfg.Paths.DataDir, "loomvale.lock")
			runLock := flock.New(lockPath)
			locked, err := runLock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return errors.New("another loomvale run is already in progress")
			}
			defer func() { _ = runLock.Unlock() }()

			store, err := ctx.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runner, err := buildRunner(cfg, store, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if cfg.Workflow.RunTimeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(runCtx, time.Duration(cfg.Workflow.RunTimeout)*time.Second)
				defer cancel()
			}

			summary, err := runner.Run(runCtx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Run %s: processed %d row(s): %d done, %d needing work, %d failed, %d seeded (%s)\n",
				summary.RunID, summary.Processed, summary.Completed, summary.NeedsWork,
				summary.Failed, summary.Seeded, summary.Duration.Round(time.Millisecond))
			return nil
		},
	}
}
