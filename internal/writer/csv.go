package writer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/KaramelBytes/campaign-etl/internal/table"
	"github.com/KaramelBytes/campaign-etl/internal/transform"
	"github.com/KaramelBytes/campaign-etl/internal/utils"
)

// Encode renders a frame as comma-separated UTF-8 with a header row and no
// index column. Missing values become empty fields.
func Encode(f *table.Frame) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(f.Records()); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteTables creates dir if needed and writes each table to <dir>/<name>.csv,
// replacing existing files. Every table is encoded before the first file is
// touched, so an encoding failure writes nothing. It returns the written paths.
func WriteTables(dir string, tables []transform.NamedFrame, log *slog.Logger) ([]string, error) {
	if log == nil {
		log = slog.Default()
	}
	encoded := make([][]byte, len(tables))
	for i, t := range tables {
		b, err := Encode(t.Frame)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.Name, err)
		}
		encoded[i] = b
	}

	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	paths := make([]string, 0, len(tables))
	for i, t := range tables {
		p := filepath.Join(dir, t.Name+".csv")
		if err := utils.SafeWriteFile(p, encoded[i]); err != nil {
			return paths, fmt.Errorf("write %s: %w", filepath.Base(p), err)
		}
		log.Info("wrote table",
			slog.String("file", p),
			slog.Int("rows", t.Frame.Len()),
			slog.Int("bytes", len(encoded[i])))
		paths = append(paths, p)
	}
	return paths, nil
}
