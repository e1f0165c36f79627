package analysis

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/campaign-etl/internal/table"
)

var campaignRows = []string{
	"client_id,contact_duration,campaign_outcome,last_contact_date,job",
	"0,261,0,2022-05-05,housemaid",
	"1,149,0,2022-05-05,services",
	"2,226,1,,admin",
	"3,151,0,2022-06-11,services",
	"4,307,1,2022-06-11,services",
	"5,198,0,2022-07-01,blue_collar",
	"6,139,0,2022-07-01,admin",
	"7,217,0,2022-07-02,technician",
	"8,3000,1,2022-08-03,services",
	"9,55,0,2022-08-04,retired",
}

func writeCampaign(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "campaign.csv")
	if err := os.WriteFile(p, []byte(strings.Join(campaignRows, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return p
}

func TestProfileCSVAndMarkdown(t *testing.T) {
	opt := DefaultOptions()
	opt.SampleRows = 2
	opt.MaxRows = 9
	opt.GroupBy = []string{"campaign_outcome"}

	rep, err := ProfileCSV(writeCampaign(t), opt)
	if err != nil {
		t.Fatalf("ProfileCSV: %v", err)
	}
	if rep.Name != "campaign.csv" || rep.Rows != 10 || rep.Processed != 9 {
		t.Fatalf("report header = %q rows=%d processed=%d", rep.Name, rep.Rows, rep.Processed)
	}
	if len(rep.Samples) != 2 || rep.Samples[0][4] != "housemaid" {
		t.Fatalf("samples = %#v", rep.Samples)
	}

	dur := columnByName(t, rep, "contact_duration")
	if dur.Kind != "numeric" || dur.NonNull != 9 {
		t.Fatalf("duration = %#v", dur)
	}
	vals := []float64{261, 149, 226, 151, 307, 198, 139, 217, 3000}
	if !almostEqual(dur.Mean, mean(vals), 1e-9) || !almostEqual(dur.Std, sampleStd(vals), 1e-9) {
		t.Fatalf("duration mean/std = %f/%f", dur.Mean, dur.Std)
	}
	if dur.Min != 139 || dur.Max != 3000 || dur.OutliersCount != 1 {
		t.Fatalf("duration min/max/outliers = %f/%f/%d", dur.Min, dur.Max, dur.OutliersCount)
	}

	date := columnByName(t, rep, "last_contact_date")
	if date.Kind != "datetime" || date.Missing != 1 {
		t.Fatalf("date = %#v", date)
	}
	job := columnByName(t, rep, "job")
	if job.Kind != "categorical" || job.TopValues[0].Value != "services" || job.TopValues[0].Count != 4 {
		t.Fatalf("job = %#v", job)
	}
	flag := columnByName(t, rep, "campaign_outcome")
	if len(flag.TopValues) != 2 || flag.TopValues[0].Value != "0" {
		t.Fatalf("flag codes = %#v", flag.TopValues)
	}

	if len(rep.Groups) != 2 || rep.Groups[0].Key != "campaign_outcome=0" || rep.Groups[0].Size != 6 {
		t.Fatalf("groups = %#v", rep.Groups)
	}

	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: campaign.csv",
		"Rows: ~10 (processed 9)",
		"- contact_duration: numeric (non-null 9, missing 0.0%)",
		"outliers: 1 above |z|>3.5",
		"- last_contact_date: datetime (non-null 8, missing 11.1%)",
		"top: services(4)",
		"codes: 0(6), 1(3)",
		"[GROUP-BY SUMMARY]",
		"[HEAD AND SAMPLE ROWS]",
		"processed only 9/10 rows due to MaxRows",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestProfileEmptyAndUnknownGroup(t *testing.T) {
	rep := Profile("empty", table.New(), DefaultOptions())
	if len(rep.Cols) != 0 || !strings.Contains(rep.Markdown(), "Rows: 0") {
		t.Fatalf("unexpected empty report: %#v", rep)
	}

	f := table.FromRecords([]string{"a"}, [][]string{{""}, {""}})
	opt := DefaultOptions()
	opt.GroupBy = []string{"nope"}
	rep = Profile("x", f, opt)
	if rep.Cols[0].Kind != "unknown" || rep.Cols[0].Missing != 2 {
		t.Fatalf("col = %#v", rep.Cols[0])
	}
	if len(rep.Warnings) != 1 || !strings.Contains(rep.Warnings[0], `"nope"`) {
		t.Fatalf("warnings = %#v", rep.Warnings)
	}
}

func columnByName(t *testing.T, rep *Report, name string) ColumnSummary {
	t.Helper()
	for _, c := range rep.Cols {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("column %q not found", name)
	return ColumnSummary{}
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func sampleStd(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := mean(vals)
	var sum float64
	for _, v := range vals {
		diff := v - m
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(vals)-1))
}

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}
