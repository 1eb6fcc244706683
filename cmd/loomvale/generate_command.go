package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"loomvale/internal/imagegen"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var maxRows int

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render briefs for content-complete generate-mode rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}

			client, err := imagegen.New(cfg.ImageGen)
			if err != nil {
				return err
			}

			store, err := ctx.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pass := imagegen.NewPass(store, client, maxRows, logger)
			rendered, err := pass.Run(runCtx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rendered briefs for %d row(s)\n", rendered)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxRows, "max-rows", 10, "Maximum rows to render in one pass")
	return cmd
}
