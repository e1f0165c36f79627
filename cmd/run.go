package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/campaign-etl/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	runInput   string
	runOutput  string
	runPattern string
	runYear    int
	runQuiet   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Read the input archives and write client.csv, campaign.csv and economics.csv",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "input directory with *.csv.zip archives (overrides config)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "output directory (overrides config)")
	runCmd.Flags().StringVar(&runPattern, "pattern", "", "archive glob inside the input directory (overrides config)")
	runCmd.Flags().IntVar(&runYear, "year", 0, "year used to build last_contact_date (overrides config)")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "suppress the per-file summary")
}

// runPipeline resolves options from config and flags and executes one run.
// The root command has no local flags, so only config applies there.
func runPipeline(cmd *cobra.Command) error {
	if cfgErr != nil {
		return fmt.Errorf("load config: %w", cfgErr)
	}
	opt := pipeline.DefaultOptions()
	if cfg != nil {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		opt = pipeline.FromConfig(cfg)
	}
	f := cmd.Flags()
	if f.Lookup("input") != nil && f.Changed("input") && runInput != "" {
		opt.InputDir = runInput
	}
	if f.Lookup("output") != nil && f.Changed("output") && runOutput != "" {
		opt.OutputDir = runOutput
	}
	if f.Lookup("pattern") != nil && f.Changed("pattern") && runPattern != "" {
		opt.Pattern = runPattern
	}
	if f.Lookup("year") != nil && f.Changed("year") {
		if runYear < 1 || runYear > 9999 {
			return fmt.Errorf("invalid --year: %d", runYear)
		}
		opt.Year = runYear
	}

	res, err := pipeline.Run(opt)
	if err != nil {
		return err
	}
	quiet := f.Lookup("quiet") != nil && runQuiet
	if quiet {
		return nil
	}
	out := cmd.OutOrStdout()
	if res.Empty {
		fmt.Fprintf(out, "⚠ No input rows found in %s; nothing written.\n", opt.InputDir)
		return nil
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(out, "⚠ Skipped %s (no .csv entry)\n", filepath.Base(s))
	}
	for _, p := range res.Outputs {
		fmt.Fprintf(out, "✓ Wrote %s (%d rows)\n", p, res.Rows)
	}
	return nil
}
