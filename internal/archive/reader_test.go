package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeZip creates an archive holding the given entries in order.
func writeZip(t *testing.T, path string, entries ...[2]string) {
	t.Helper()
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(out)
	for _, e := range entries {
		w, err := zw.Create(e[0])
		if err != nil {
			t.Fatalf("zip entry: %v", err)
		}
		if _, err := w.Write([]byte(e[1])); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("file close: %v", err)
	}
}

func TestReadDirConcatenatesInLexicalOrder(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "bank_1.csv.zip"), [2]string{"bank_1.csv", ",client_id,const_price_idx\n0,1,93.2\n1,2,93.9\n"})
	writeZip(t, filepath.Join(dir, "bank_0.csv.zip"), [2]string{"bank_0.csv", "Unnamed: 0,client_id,cons_price_idx\n0,0,92.8\n"})
	writeZip(t, filepath.Join(dir, "notes.zip"), [2]string{"n.csv", "client_id\n99\n"})

	res, err := ReadDir(dir, Options{})
	require.NoError(t, err)
	require.Len(t, res.Archives, 2)
	assert.Equal(t, "bank_0.csv.zip", filepath.Base(res.Archives[0]))

	f := res.Frame
	assert.Equal(t, []string{"client_id", "cons_price_idx"}, f.Header)
	assert.Equal(t, [][]string{
		{"client_id", "cons_price_idx"},
		{"0", "92.8"},
		{"1", "93.2"},
		{"2", "93.9"},
	}, f.Records())
}

func TestReadDirSkipsArchivesWithoutCSV(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "a.csv.zip"), [2]string{"readme.txt", "nothing here"})
	writeZip(t, filepath.Join(dir, "b.csv.zip"),
		[2]string{"readme.txt", "x"},
		[2]string{"DATA.CSV", "client_id\n5\n"},
		[2]string{"more.csv", "client_id\n6\n"},
	)

	res, err := ReadDir(dir, Options{})
	require.NoError(t, err)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "a.csv.zip", filepath.Base(res.Skipped[0]))
	assert.Equal(t, [][]string{{"client_id"}, {"5"}}, res.Frame.Records())
}

func TestReadDirEmptyAndMissing(t *testing.T) {
	res, err := ReadDir(t.TempDir(), Options{})
	require.NoError(t, err)
	assert.True(t, res.Frame.Empty())

	res, err = ReadDir(filepath.Join(t.TempDir(), "does-not-exist"), Options{})
	require.NoError(t, err)
	assert.True(t, res.Frame.Empty())
	assert.Empty(t, res.Archives)
}

func TestReadArchiveCorrupt(t *testing.T) {
	p := filepath.Join(t.TempDir(), "broken.csv.zip")
	require.NoError(t, os.WriteFile(p, []byte("not a zip"), 0o644))

	_, err := ReadDir(filepath.Dir(p), Options{})
	var ae *ArchiveError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, p, ae.Path)
	assert.Contains(t, err.Error(), "broken.csv.zip")
}

func TestParseCSVStripsBOM(t *testing.T) {
	f, err := ParseCSV(strings.NewReader("\ufeffclient_id,job\n1,\"admin.\"\n2,\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"client_id", "job"}, f.Header)
	require.Equal(t, 2, f.Len())
	assert.Equal(t, "admin.", f.Rows[0][1].Value)
	assert.False(t, f.Rows[1][1].Valid)

	f, err = ParseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.True(t, f.Empty())
}
