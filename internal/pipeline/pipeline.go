// Package pipeline wires the archive reader, transformer and writer into the
// single batch run that produces client.csv, campaign.csv and economics.csv.
package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/KaramelBytes/campaign-etl/internal/archive"
	"github.com/KaramelBytes/campaign-etl/internal/config"
	"github.com/KaramelBytes/campaign-etl/internal/transform"
	"github.com/KaramelBytes/campaign-etl/internal/writer"
	"github.com/google/uuid"
)

// Options are the parameters of one run.
type Options struct {
	InputDir  string
	OutputDir string
	// Pattern selects archives inside InputDir; empty means "*.csv.zip".
	Pattern string
	// Year is combined with day and month for last_contact_date.
	Year   int
	Logger *slog.Logger
}

// DefaultOptions returns the fixed layout used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		InputDir:  config.DefaultInputDir,
		OutputDir: config.DefaultOutputDir,
		Pattern:   config.DefaultArchivePattern,
		Year:      config.DefaultYear,
	}
}

// FromConfig maps loaded configuration onto run options.
func FromConfig(c *config.Global) Options {
	return Options{
		InputDir:  c.InputDir,
		OutputDir: c.OutputDir,
		Pattern:   c.ArchivePattern,
		Year:      c.Year,
	}
}

// Result summarizes a run.
type Result struct {
	RunID    string
	Archives []string
	Skipped  []string
	Rows     int
	Outputs  []string
	// Empty is true when no input rows were found; nothing was written.
	Empty    bool
	Tables   *transform.Tables
	Duration time.Duration
}

// Run reads every archive, builds the three tables and writes them. Either all
// three files are written from one combined table or, when the input is empty,
// none are.
func Run(opt Options) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString()}
	base := opt.Logger
	if base == nil {
		base = slog.Default()
	}
	log := base.With(slog.String("run_id", res.RunID))
	year := opt.Year
	if year == 0 {
		year = transform.DefaultYear
	}

	log.Info("reading archives", slog.String("input_dir", opt.InputDir))
	in, err := archive.ReadDir(opt.InputDir, archive.Options{Pattern: opt.Pattern, Logger: log})
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	res.Archives = in.Archives
	res.Skipped = in.Skipped
	res.Rows = in.Frame.Len()
	if in.Frame.Empty() {
		res.Empty = true
		res.Duration = time.Since(start)
		log.Info("no input rows, nothing to write", slog.Int("archives", len(in.Archives)))
		return res, nil
	}

	tables, err := transform.Split(in.Frame, year)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	res.Tables = tables

	outputs, err := writer.WriteTables(opt.OutputDir, tables.Named(), log)
	if err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}
	res.Outputs = outputs
	res.Duration = time.Since(start)
	log.Info("run complete",
		slog.Int("archives", len(res.Archives)),
		slog.Int("rows", res.Rows),
		slog.Duration("duration", res.Duration))
	return res, nil
}
