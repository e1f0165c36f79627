package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/KaramelBytes/campaign-etl/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	prSampleRows int
	prMaxRows    int
	prGroupBy    []string
	prOutliers   bool
	prOutlierThr float64
	prOutputPath string
	prQuiet      bool
)

var profileCmd = &cobra.Command{
	Use:   "profile [files...]",
	Short: "Summarize written output CSVs (defaults to the three files in the output directory)",
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := profileTargets(args)
		if err != nil {
			return err
		}

		opt := analysis.DefaultOptions()
		if prSampleRows >= 0 {
			opt.SampleRows = prSampleRows
		}
		if prMaxRows > 0 {
			opt.MaxRows = prMaxRows
		}
		opt.GroupBy = prGroupBy
		if cmd.Flags().Changed("outliers") {
			opt.Outliers = prOutliers
		}
		if prOutlierThr > 0 {
			opt.OutlierThreshold = prOutlierThr
		}

		out := cmd.OutOrStdout()
		var all []byte
		total := len(files)
		for i, path := range files {
			if !prQuiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] Profiling %s...\n", i+1, total, filepath.Base(path))
			}
			rep, err := analysis.ProfileCSV(path, opt)
			if err != nil {
				return err
			}
			md := rep.Markdown()
			if prOutputPath != "" {
				all = append(all, md...)
				all = append(all, '\n')
				continue
			}
			fmt.Fprintln(out, md)
		}
		if prOutputPath != "" {
			if err := os.WriteFile(prOutputPath, all, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote profile to %s\n", prOutputPath)
		}
		return nil
	},
}

// profileTargets expands globs, dedupes and sorts. With no args it profiles the
// outputs of the configured output directory.
func profileTargets(args []string) ([]string, error) {
	if len(args) == 0 {
		dir := "files/output"
		if cfg != nil && cfg.OutputDir != "" {
			dir = cfg.OutputDir
		}
		for _, name := range []string{"client.csv", "campaign.csv", "economics.csv"} {
			args = append(args, filepath.Join(dir, name))
		}
	}
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&prOutputPath, "output", "o", "", "optional path to write the profile (Markdown)")
	profileCmd.Flags().IntVar(&prSampleRows, "sample-rows", 5, "number of sample rows to include (0 disables samples)")
	profileCmd.Flags().IntVar(&prMaxRows, "max-rows", 100000, "maximum rows to process (0 = unlimited)")
	profileCmd.Flags().StringSliceVar(&prGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	profileCmd.Flags().BoolVar(&prOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	profileCmd.Flags().Float64Var(&prOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	profileCmd.Flags().BoolVar(&prQuiet, "quiet", false, "suppress progress output")
}
