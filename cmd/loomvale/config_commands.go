package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"loomvale/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}
			if err := config.WriteSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample config to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&targetPath, "path", "", "Config file destination (defaults to the standard location)")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Check that the configuration loads and validates",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration OK (backlog db: %s)\n", cfg.DatabasePath())
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print effective configuration values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "data_dir:          %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(out, "log_dir:           %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "search.base_url:   %s\n", cfg.Search.BaseURL)
			fmt.Fprintf(out, "search.api_key:    %s\n", maskSecret(cfg.Search.APIKey))
			fmt.Fprintf(out, "search.engine_id:  %s\n", cfg.Search.EngineID)
			fmt.Fprintf(out, "target_links:      %d\n", cfg.Discovery.TargetLinks)
			fmt.Fprintf(out, "min_height:        %d\n", cfg.Discovery.MinHeight)
			fmt.Fprintf(out, "min_bytes:         %d\n", cfg.Discovery.MinBytes)
			fmt.Fprintf(out, "trusted_hosts:     %s\n", strings.Join(cfg.Discovery.TrustedHosts, ", "))
			fmt.Fprintf(out, "max_rows_per_run:  %d\n", cfg.Workflow.MaxRowsPerRun)
			fmt.Fprintf(out, "seeder.enabled:    %t\n", cfg.Seeder.Enabled)
			fmt.Fprintf(out, "imagegen.enabled:  %t\n", cfg.ImageGen.Enabled)
			return nil
		},
	}
}

func maskSecret(value string) string {
	if value == "" {
		return "(unset)"
	}
	if len(value) <= 4 {
		return "****"
	}
	return value[:2] + strings.Repeat("*", len(value)-4) + value[len(value)-2:]
}
