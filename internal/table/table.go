package table

import (
	"fmt"
	"strings"
)

// Field is a single cell. A Field is either a text value or missing.
type Field struct {
	Value string
	Valid bool
}

// Missing returns the missing-value marker.
func Missing() Field { return Field{} }

// Text returns a present value. Use Parse for raw CSV input.
func Text(s string) Field { return Field{Value: s, Valid: true} }

// Parse converts a raw CSV field into a Field; empty input is missing.
func Parse(s string) Field {
	if s == "" {
		return Missing()
	}
	return Text(s)
}

// String renders the field for CSV output; missing becomes "".
func (f Field) String() string {
	if !f.Valid {
		return ""
	}
	return f.Value
}

// MissingColumnError reports columns that a caller required but the frame lacks.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	if len(e.Columns) == 1 {
		return fmt.Sprintf("missing column %q", e.Columns[0])
	}
	quoted := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return fmt.Sprintf("missing columns %s", strings.Join(quoted, ", "))
}

// Frame is an in-memory table: ordered headers and rows aligned to them.
type Frame struct {
	Header []string
	Rows   [][]Field
}

// New builds an empty frame with the given columns.
func New(header ...string) *Frame {
	h := make([]string, len(header))
	copy(h, header)
	return &Frame{Header: h}
}

// FromRecords builds a frame from a CSV header and raw records.
// Short records are padded with missing values; extra fields are dropped.
func FromRecords(header []string, records [][]string) *Frame {
	f := New(header...)
	f.Rows = make([][]Field, 0, len(records))
	for _, rec := range records {
		row := make([]Field, len(header))
		for i := range row {
			if i < len(rec) {
				row[i] = Parse(rec[i])
			}
		}
		f.Rows = append(f.Rows, row)
	}
	return f
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// Empty reports whether the frame has no rows.
func (f *Frame) Empty() bool { return f.Len() == 0 }

// Index returns the position of a column or -1.
func (f *Frame) Index(name string) int {
	for i, h := range f.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Has reports whether the column exists.
func (f *Frame) Has(name string) bool { return f.Index(name) >= 0 }

// Require checks all names at once and lists every absent column.
func (f *Frame) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if !f.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnError{Columns: missing}
	}
	return nil
}

// Column returns a copy of the named column's values.
func (f *Frame) Column(name string) ([]Field, error) {
	idx := f.Index(name)
	if idx < 0 {
		return nil, &MissingColumnError{Columns: []string{name}}
	}
	out := make([]Field, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// AddColumn appends a column. values must have one entry per row.
func (f *Frame) AddColumn(name string, values []Field) error {
	if f.Has(name) {
		return fmt.Errorf("column %q already exists", name)
	}
	if len(f.Header) > 0 && len(values) != len(f.Rows) {
		return fmt.Errorf("column %q has %d values, frame has %d rows", name, len(values), len(f.Rows))
	}
	if len(f.Header) == 0 {
		f.Rows = make([][]Field, len(values))
	}
	f.Header = append(f.Header, name)
	for i := range f.Rows {
		f.Rows[i] = append(f.Rows[i], values[i])
	}
	return nil
}

// Drop removes a column if present.
func (f *Frame) Drop(name string) {
	idx := f.Index(name)
	if idx < 0 {
		return
	}
	f.Header = append(f.Header[:idx:idx], f.Header[idx+1:]...)
	for i, row := range f.Rows {
		f.Rows[i] = append(row[:idx:idx], row[idx+1:]...)
	}
}

// Rename applies mapping to the headers. Unmapped headers pass through.
// When several headers map onto the same name they are merged into the first
// one; for each row the first present value wins.
func (f *Frame) Rename(mapping map[string]string) {
	target := make([]string, len(f.Header))
	for i, h := range f.Header {
		if to, ok := mapping[h]; ok {
			target[i] = to
		} else {
			target[i] = h
		}
	}

	// src[j] lists the old column positions feeding new column j
	var header []string
	var src [][]int
	pos := map[string]int{}
	for i, name := range target {
		j, ok := pos[name]
		if !ok {
			j = len(header)
			pos[name] = j
			header = append(header, name)
			src = append(src, nil)
		}
		src[j] = append(src[j], i)
	}
	if len(header) == len(f.Header) {
		f.Header = header
		return
	}

	for r, row := range f.Rows {
		out := make([]Field, len(header))
		for j, olds := range src {
			for _, i := range olds {
				if row[i].Valid {
					out[j] = row[i]
					break
				}
			}
		}
		f.Rows[r] = out
	}
	f.Header = header
}

// Records returns the frame as CSV records, header first.
func (f *Frame) Records() [][]string {
	out := make([][]string, 0, len(f.Rows)+1)
	h := make([]string, len(f.Header))
	copy(h, f.Header)
	out = append(out, h)
	for _, row := range f.Rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = v.String()
		}
		out = append(out, rec)
	}
	return out
}

// Concat stacks frames vertically. Columns are the union of all headers in
// first-seen order; cells a frame does not have become missing.
func Concat(frames ...*Frame) *Frame {
	out := New()
	pos := map[string]int{}
	total := 0
	for _, fr := range frames {
		if fr == nil {
			continue
		}
		for _, h := range fr.Header {
			if _, ok := pos[h]; !ok {
				pos[h] = len(out.Header)
				out.Header = append(out.Header, h)
			}
		}
		total += len(fr.Rows)
	}
	out.Rows = make([][]Field, 0, total)
	for _, fr := range frames {
		if fr == nil {
			continue
		}
		for _, row := range fr.Rows {
			dst := make([]Field, len(out.Header))
			for i, h := range fr.Header {
				dst[pos[h]] = row[i]
			}
			out.Rows = append(out.Rows, dst)
		}
	}
	return out
}
