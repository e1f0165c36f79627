package archive

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/campaign-etl/internal/harmonize"
	"github.com/KaramelBytes/campaign-etl/internal/table"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultPattern matches the compressed survey batches.
const DefaultPattern = "*.csv.zip"

// Options controls how an input directory is scanned.
type Options struct {
	// Pattern is a filepath.Match glob relative to the directory.
	// Empty means DefaultPattern.
	Pattern string
	Logger  *slog.Logger
}

// Result is the combined table plus bookkeeping about what was read.
type Result struct {
	Frame    *table.Frame
	Archives []string // archives that contributed a batch, in read order
	Skipped  []string // archives without a CSV entry
}

// ArchiveError ties a read failure to the archive that caused it.
type ArchiveError struct {
	Path string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// ReadDir reads every matching archive in dir in lexicographic order and
// concatenates their first CSV entries. Headers are harmonized per batch
// before concatenation. A missing directory or no usable archives yields an
// empty frame and no error.
func ReadDir(dir string, opt Options) (*Result, error) {
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	pattern := opt.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(paths)

	res := &Result{}
	var batches []*table.Frame
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		f, ok, err := ReadArchive(p)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Debug("archive has no csv entry, skipping", slog.String("archive", p))
			res.Skipped = append(res.Skipped, p)
			continue
		}
		log.Debug("read batch",
			slog.String("archive", p),
			slog.Int("rows", f.Len()),
			slog.Int("columns", len(f.Header)))
		batches = append(batches, harmonize.Apply(f))
		res.Archives = append(res.Archives, p)
	}
	if len(batches) == 0 {
		res.Frame = table.New()
		return res, nil
	}

	combined := table.Concat(batches...)
	// index artifacts: pandas names it "Unnamed: 0", other exporters leave it blank
	combined.Drop(harmonize.IndexColumn)
	combined.Drop("")
	res.Frame = combined
	return res, nil
}

// ReadArchive loads a zip archive into memory and parses its first entry with
// a .csv suffix. ok is false when the archive holds no such entry.
func ReadArchive(path string) (f *table.Frame, ok bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, false, &ArchiveError{Path: path, Err: err}
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, false, &ArchiveError{Path: path, Err: fmt.Errorf("open zip: %w", err)}
	}
	entry := firstCSV(zr)
	if entry == nil {
		return nil, false, nil
	}
	rc, err := entry.Open()
	if err != nil {
		return nil, false, &ArchiveError{Path: path, Err: fmt.Errorf("open %s: %w", entry.Name, err)}
	}
	defer rc.Close()

	f, err = ParseCSV(rc)
	if err != nil {
		return nil, false, &ArchiveError{Path: path, Err: fmt.Errorf("%s: %w", entry.Name, err)}
	}
	return f, true, nil
}

func firstCSV(zr *zip.Reader) *zip.File {
	for _, zf := range zr.File {
		if strings.HasSuffix(strings.ToLower(zf.Name), ".csv") {
			return zf
		}
	}
	return nil
}

// ParseCSV reads UTF-8 CSV with a header row. A leading byte order mark is
// dropped. Input with no header yields an empty frame.
func ParseCSV(r io.Reader) (*table.Frame, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.UTF8BOM.NewDecoder()))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return table.New(), nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var records [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return table.FromRecords(header, records), nil
}
