package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"loomvale/internal/backlog"
)

func newBacklogCommand(ctx *commandContext) *cobra.Command {
	backlogCmd := &cobra.Command{
		Use:   "backlog",
		Short: "Inspect and edit the content backlog",
	}

	backlogCmd.AddCommand(newBacklogListCommand(ctx))
	backlogCmd.AddCommand(newBacklogAddCommand(ctx))
	backlogCmd.AddCommand(newBacklogShowCommand(ctx))

	return backlogCmd
}

func newBacklogListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List backlog rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			rows, err := store.ListRows(cmd.Context())
			if err != nil {
				return err
			}

			var filter backlog.Status
			if statusFilter != "" {
				parsed, ok := backlog.ParseStatus(statusFilter)
				if !ok {
					return fmt.Errorf("unknown status %q (known: %v)", statusFilter, backlog.AllStatuses())
				}
				filter = parsed
			}

			tableRows := make([][]string, 0, len(rows))
			for _, row := range rows {
				if filter != "" && row.Status != filter {
					continue
				}
				tableRows = append(tableRows, []string{
					strconv.FormatInt(row.ID, 10),
					string(row.Status),
					string(row.Mode),
					truncate(row.Topic, 48),
					strconv.Itoa(len(row.SourceLinks)),
					strconv.Itoa(len(row.GeneratedLinks)),
					row.UpdatedAt.Local().Format("2006-01-02 15:04"),
				})
			}

			if len(tableRows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No backlog rows")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Status", "Mode", "Topic", "Links", "Generated", "Updated"},
				tableRows,
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show rows with this status")
	return cmd
}

func newBacklogAddCommand(ctx *commandContext) *cobra.Command {
	var modeFlag string

	cmd := &cobra.Command{
		Use:   "add <topic>",
		Short: "Append a seeded row to the backlog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.TrimSpace(args[0])
			if topic == "" {
				return fmt.Errorf("topic must not be empty")
			}
			mode, ok := backlog.ParseMode(modeFlag)
			if !ok {
				return fmt.Errorf("unknown mode %q (use link/discover or ai/generate)", modeFlag)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			row, err := store.NewRow(cmd.Context(), topic, mode)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added row #%d (%s, %s)\n", row.ID, row.Topic, row.Mode)
			return nil
		},
	}

	cmd.Flags().StringVar(&modeFlag, "mode", string(backlog.ModeDiscover), "Production mode: link (discover) or ai (generate)")
	return cmd
}

func newBacklogShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show every field of one backlog row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid row id %q", args[0])
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			row, err := store.GetRow(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Row #%d\n", row.ID)
			fmt.Fprintf(out, "  Status:   %s\n", row.Status)
			fmt.Fprintf(out, "  Topic:    %s\n", row.Topic)
			fmt.Fprintf(out, "  Mode:     %s\n", row.Mode)
			fmt.Fprintf(out, "  Tone:     %s\n", row.Tone)
			if row.ErrorMessage != "" {
				fmt.Fprintf(out, "  Error:    %s\n", row.ErrorMessage)
			}
			printLinks(out, "Source links", row.SourceLinks)
			printLinks(out, "Generated links", row.GeneratedLinks)
			if row.ImageBrief != "" {
				fmt.Fprintf(out, "  Image brief:\n%s\n", indent(row.ImageBrief, "    "))
			}
			if row.CaptionPrompt != "" {
				fmt.Fprintf(out, "  Caption prompt:\n%s\n", indent(row.CaptionPrompt, "    "))
			}
			if row.HashtagPrompt != "" {
				fmt.Fprintf(out, "  Hashtag prompt:\n%s\n", indent(row.HashtagPrompt, "    "))
			}
			fmt.Fprintf(out, "  Created:  %s\n", row.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "  Updated:  %s\n", row.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
