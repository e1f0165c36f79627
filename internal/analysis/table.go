package analysis

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/campaign-etl/internal/archive"
	"github.com/KaramelBytes/campaign-etl/internal/table"
)

// Options controls profiling of a table.
type Options struct {
	// MaxRows limits rows processed; 0 means unlimited.
	MaxRows int
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupBy computes per-group numeric summaries for the given column names.
	GroupBy []string
	// Outlier detection via robust Z-score (MAD). Counts |z|>OutlierThreshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for output profiling.
func DefaultOptions() Options {
	return Options{
		MaxRows:          100000,
		SampleRows:       5,
		Outliers:         true,
		OutlierThreshold: 3.5,
	}
}

// Report is a markdown-friendly profile of one table.
type Report struct {
	Name      string
	Rows      int
	Processed int
	Cols      []ColumnSummary
	Samples   [][]string
	Groups    []GroupResult
	Warnings  []string
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|datetime|categorical|text|unknown
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures numeric means per group key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// ProfileCSV loads a written CSV file and profiles it.
func ProfileCSV(path string, opt Options) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	fr, err := archive.ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return Profile(filepath.Base(path), fr, opt), nil
}

type colAcc struct {
	name   string
	nonNil int
	miss   int
	// numeric stats via Welford
	n      int
	mean   float64
	m2     float64
	min    float64
	max    float64
	numCnt int
	dtCnt  int
	txtCnt int
	nums   []float64
	cats   map[string]int
	exText []string
}

type gAcc struct {
	size int
	sum  map[int]float64
	cnt  map[int]int
	min  map[int]float64
	max  map[int]float64
}

// Profile computes a Report for an in-memory table.
func Profile(name string, f *table.Frame, opt Options) *Report {
	rep := &Report{Name: name}
	ncol := len(f.Header)
	if ncol == 0 {
		return rep
	}
	cols := make([]*colAcc, ncol)
	for i, h := range f.Header {
		cols[i] = &colAcc{name: h, min: math.Inf(1), max: math.Inf(-1), cats: map[string]int{}}
	}
	var gbIdx []int
	for _, g := range opt.GroupBy {
		if i := f.Index(strings.TrimSpace(g)); i >= 0 {
			gbIdx = append(gbIdx, i)
		} else {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("group-by column %q not found", g))
		}
	}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	groups := map[string]*gAcc{}

	for _, row := range f.Rows {
		rep.Rows++
		if rep.Processed >= maxRows {
			continue
		}
		rep.Processed++
		if len(rep.Samples) < opt.SampleRows {
			rec := make([]string, ncol)
			for j, v := range row {
				rec[j] = v.String()
			}
			rep.Samples = append(rep.Samples, rec)
		}
		var ga *gAcc
		if len(gbIdx) > 0 {
			parts := make([]string, len(gbIdx))
			for k, idx := range gbIdx {
				parts[k] = fmt.Sprintf("%s=%s", f.Header[idx], safeVal(row[idx].String()))
			}
			key := strings.Join(parts, " | ")
			ga = groups[key]
			if ga == nil {
				ga = &gAcc{sum: map[int]float64{}, cnt: map[int]int{}, min: map[int]float64{}, max: map[int]float64{}}
				groups[key] = ga
			}
			ga.size++
		}

		for j, v := range row {
			c := cols[j]
			s := strings.TrimSpace(v.Value)
			if !v.Valid || s == "" {
				c.miss++
				continue
			}
			c.nonNil++
			if x, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(x) {
				c.numCnt++
				c.n++
				if x < c.min {
					c.min = x
				}
				if x > c.max {
					c.max = x
				}
				delta := x - c.mean
				c.mean += delta / float64(c.n)
				c.m2 += delta * (x - c.mean)
				c.nums = append(c.nums, x)
				if ga != nil {
					ga.sum[j] += x
					ga.cnt[j]++
					if m, ok := ga.min[j]; !ok || x < m {
						ga.min[j] = x
					}
					if m, ok := ga.max[j]; !ok || x > m {
						ga.max[j] = x
					}
				}
				// low-cardinality codes (0/1 flags) are still worth counting
				if len(c.cats) <= 10000 {
					c.cats[s]++
				}
				continue
			}
			if _, ok := parseTimeMaybe(s); ok {
				c.dtCnt++
				continue
			}
			c.txtCnt++
			if len(c.cats) <= 10000 && len(s) <= 64 {
				c.cats[s]++
			}
			if len(c.exText) < 3 {
				c.exText = append(c.exText, s)
			}
		}
	}

	rep.Cols = make([]ColumnSummary, 0, ncol)
	var numCols []int
	for idx, c := range cols {
		s := ColumnSummary{Name: c.name, NonNull: c.nonNil, Missing: c.miss, Unique: len(c.cats)}
		switch {
		case c.numCnt >= c.dtCnt && c.numCnt >= c.txtCnt && c.numCnt > 0:
			s.Kind = "numeric"
			s.Min, s.Max, s.Mean = c.min, c.max, c.mean
			if c.n > 1 {
				s.Std = math.Sqrt(c.m2 / float64(c.n-1))
			}
			numCols = append(numCols, idx)
			if len(c.cats) <= 2 {
				s.TopValues = topValues(c.cats, 2)
			}
			if opt.Outliers && len(c.nums) >= 8 {
				thr := opt.OutlierThreshold
				if thr <= 0 {
					thr = 3.5
				}
				s.OutliersCount = countOutliers(c.nums, thr)
				s.OutlierThreshold = thr
			}
		case c.dtCnt >= c.txtCnt && c.dtCnt > 0:
			s.Kind = "datetime"
		case len(c.cats) > 0:
			s.Kind = "categorical"
			s.TopValues = topValues(c.cats, 8)
		case c.txtCnt > 0:
			s.Kind = "text"
			s.ExampleTexts = c.exText
		default:
			s.Kind = "unknown"
		}
		rep.Cols = append(rep.Cols, s)
	}
	if rep.Processed < rep.Rows {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", rep.Processed, rep.Rows))
	}

	for k, ga := range groups {
		gr := GroupResult{Key: k, Size: ga.size, Metrics: map[string]NumSummary{}}
		for _, idx := range numCols {
			if ga.cnt[idx] == 0 {
				continue
			}
			gr.Metrics[cols[idx].name] = NumSummary{
				Count: ga.cnt[idx], Min: ga.min[idx], Max: ga.max[idx],
				Mean: ga.sum[idx] / float64(ga.cnt[idx]),
			}
		}
		rep.Groups = append(rep.Groups, gr)
	}
	sort.Slice(rep.Groups, func(i, j int) bool {
		if rep.Groups[i].Size == rep.Groups[j].Size {
			return rep.Groups[i].Key < rep.Groups[j].Key
		}
		return rep.Groups[i].Size > rep.Groups[j].Size
	})
	if len(rep.Groups) > 20 {
		rep.Groups = rep.Groups[:20]
	}
	return rep
}

func topValues(cats map[string]int, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{time.RFC3339, "2006-01-02", "2006/01/02", "2006-01-02 15:04:05"}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// countOutliers counts values whose robust z-score exceeds thr.
func countOutliers(vals []float64, thr float64) int {
	median, mad := medianMAD(vals)
	if mad == 0 {
		return 0
	}
	var cnt int
	for _, v := range vals {
		if math.Abs(0.6745*(v-median)/mad) > thr {
			cnt++
		}
	}
	return cnt
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Markdown renders a compact report for the terminal or a standalone doc.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	if r.Processed > 0 && r.Processed < r.Rows {
		b.WriteString(fmt.Sprintf("Rows: ~%d (processed %d)\n", r.Rows, r.Processed))
	} else {
		b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
			}
			if len(c.TopValues) > 0 {
				b.WriteString(" — codes: ")
				writeTops(&b, c)
			}
		case "categorical":
			b.WriteString(" — top: ")
			writeTops(&b, c)
			if c.Unique > len(c.TopValues) {
				b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
			}
		case "text":
			if len(c.ExampleTexts) > 0 {
				b.WriteString(" — e.g., ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}
	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if len(keys) > 6 {
				keys = keys[:6]
			}
			for _, k := range keys {
				m := g.Metrics[k]
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g (min %.4g, max %.4g)\n", k, m.Mean, m.Min, m.Max))
			}
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i, val := range row {
				if i > 0 {
					b.WriteString(" | ")
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeTops(b *strings.Builder, c ColumnSummary) {
	for i, kv := range c.TopValues {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
	}
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
