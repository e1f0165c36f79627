package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/campaign-etl/internal/config"
	"github.com/KaramelBytes/campaign-etl/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration
	cfg    *cfgpkg.Global
	cfgErr error
)

var rootCmd = &cobra.Command{
	Use:   "campaign-etl",
	Short: "Split bank marketing survey archives into client, campaign and economics CSVs",
	Long: `campaign-etl reads every *.csv.zip archive in the input directory (files/input by default),
harmonizes column names, recodes the survey fields and writes client.csv, campaign.csv
and economics.csv to the output directory (files/output by default).

Running it without a subcommand performs the same job as "campaign-etl run".`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd)
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.campaign-etl/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text|json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		cfgErr = err
		cfg = nil
		logging.Setup("info", "text")
		return
	}
	cfgErr = nil
	cfg = c

	f := rootCmd.PersistentFlags()
	if debug {
		cfg.LogLevel = "debug"
	}
	if f.Changed("log-format") && logFormat != "" {
		cfg.LogFormat = logFormat
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
}
