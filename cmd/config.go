package cmd

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/KaramelBytes/campaign-etl/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set campaign-etl configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			if cfgErr != nil {
				return fmt.Errorf("load config: %w", cfgErr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "input_dir: %s\n", cfg.InputDir)
		fmt.Fprintf(out, "output_dir: %s\n", cfg.OutputDir)
		fmt.Fprintf(out, "archive_pattern: %s\n", cfg.ArchivePattern)
		fmt.Fprintf(out, "year: %d\n", cfg.Year)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", cfg.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "input_dir":
			cfg.InputDir = val
		case "output_dir":
			cfg.OutputDir = val
		case "archive_pattern":
			cfg.ArchivePattern = val
		case "year":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for year: %w", err)
			}
			cfg.Year = i
		case "log_level":
			switch val {
			case "debug", "info", "warn", "error":
				cfg.LogLevel = val
			default:
				return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
			}
		case "log_format":
			switch val {
			case "text", "json":
				cfg.LogFormat = val
			default:
				return fmt.Errorf("invalid log_format: %s (use text or json)", val)
			}
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
