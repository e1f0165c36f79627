package pipeline

import (
	"archive/zip"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/campaign-etl/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = ",client_id,age,job,marital,education,credit_default,mortgage,month,day,number_contacts,contact_duration,previous_campaing_contacts,previous_outcome,const_price_idx,eurobor_three_months,campaign_outcome"

var rows = []string{
	"0,0,56,housemaid,married,basic.4y,no,no,may,5,1,261,0,nonexistent,93.994,4.857,no",
	"1,1,57,services,married,high.school,unknown,no,may,5,1,149,0,nonexistent,93.994,4.857,no",
	"2,2,37,admin.,single,university.degree,no,yes,feb,31,1,226,0,success,93.994,4.857,yes",
	"3,3,40,blue-collar,married,unknown,no,no,13,15,1,151,0,failure,93.994,4.857,no",
}

func zipCSV(t *testing.T, path, body string) {
	t.Helper()
	out, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	w, err := zw.Create(strings.TrimSuffix(filepath.Base(path), ".zip"))
	require.NoError(t, err)
	_, err = io.WriteString(w, body)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
}

func quietOptions(in, out string) Options {
	opt := DefaultOptions()
	opt.InputDir = in
	opt.OutputDir = out
	opt.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return opt
}

func readOutputs(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, name := range []string{"client.csv", "campaign.csv", "economics.csv"} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		out[name] = string(b)
	}
	return out
}

func TestRunWritesThreeTables(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "files", "output")
	zipCSV(t, filepath.Join(in, "bank-marketing.csv.zip"), header+"\n"+strings.Join(rows, "\n")+"\n")

	res, err := Run(quietOptions(in, out))
	require.NoError(t, err)
	assert.False(t, res.Empty)
	assert.Equal(t, 4, res.Rows)
	assert.Len(t, res.Outputs, 3)
	assert.NotEmpty(t, res.RunID)

	got := readOutputs(t, out)
	assert.Equal(t, "client_id,age,job,marital,education,credit_default,mortgage\n"+
		"0,56,housemaid,married,basic_4y,0,0\n"+
		"1,57,services,married,high_school,0,0\n"+
		"2,37,admin,single,university_degree,0,1\n"+
		"3,40,blue_collar,married,,0,0\n", got["client.csv"])
	assert.Equal(t, "client_id,number_contacts,contact_duration,previous_campaign_contacts,previous_outcome,campaign_outcome,last_contact_date\n"+
		"0,1,261,0,0,0,2022-05-05\n"+
		"1,1,149,0,0,0,2022-05-05\n"+
		"2,1,226,0,1,1,\n"+
		"3,1,151,0,0,0,\n", got["campaign.csv"])
	assert.Equal(t, "client_id,cons_price_idx,euribor_three_months\n"+
		"0,93.994,4.857\n1,93.994,4.857\n2,93.994,4.857\n3,93.994,4.857\n", got["economics.csv"])
}

func TestRunSplitArchivesMatchUnion(t *testing.T) {
	union := t.TempDir()
	zipCSV(t, filepath.Join(union, "all.csv.zip"), header+"\n"+strings.Join(rows, "\n")+"\n")

	split := t.TempDir()
	zipCSV(t, filepath.Join(split, "part_a.csv.zip"), header+"\n"+strings.Join(rows[:2], "\n")+"\n")
	renamed := strings.Replace(header, "const_price_idx", "cons_price_idx", 1)
	zipCSV(t, filepath.Join(split, "part_b.csv.zip"), renamed+"\n"+strings.Join(rows[2:], "\n")+"\n")

	outUnion := t.TempDir()
	outSplit := t.TempDir()
	_, err := Run(quietOptions(union, outUnion))
	require.NoError(t, err)
	res, err := Run(quietOptions(split, outSplit))
	require.NoError(t, err)
	require.Len(t, res.Archives, 2)

	assert.Equal(t, readOutputs(t, outUnion), readOutputs(t, outSplit))
}

func TestRunIsIdempotent(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	zipCSV(t, filepath.Join(in, "a.csv.zip"), header+"\n"+strings.Join(rows, "\n")+"\n")

	_, err := Run(quietOptions(in, out))
	require.NoError(t, err)
	first := readOutputs(t, out)
	_, err = Run(quietOptions(in, out))
	require.NoError(t, err)
	assert.Equal(t, first, readOutputs(t, out))
}

func TestRunEmptyInputWritesNothing(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "output")

	res, err := Run(quietOptions(in, out))
	require.NoError(t, err)
	assert.True(t, res.Empty)
	assert.Empty(t, res.Outputs)
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err), "output dir should not be created")

	res, err = Run(quietOptions(filepath.Join(in, "missing"), out))
	require.NoError(t, err)
	assert.True(t, res.Empty)
}

func TestRunAlternateYear(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	zipCSV(t, filepath.Join(in, "a.csv.zip"), header+"\n"+rows[0]+"\n")

	opt := quietOptions(in, out)
	opt.Year = 2020
	_, err := Run(opt)
	require.NoError(t, err)
	assert.Contains(t, readOutputs(t, out)["campaign.csv"], "2020-05-05")
}

func TestRunMissingColumnFailsWithoutOutput(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "output")
	zipCSV(t, filepath.Join(in, "a.csv.zip"), "client_id,age\n1,30\n")

	_, err := Run(quietOptions(in, out))
	var mce *table.MissingColumnError
	require.True(t, errors.As(err, &mce))
	assert.Contains(t, err.Error(), "job")
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}
