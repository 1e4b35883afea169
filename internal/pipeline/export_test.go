package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"mkbscrape/internal"
)

var sampleEntries = []internal.Entry{
	{Code: "A00", Primary: "Kolera", Alternate: "Cholera"},
	{Code: "A00.0", Primary: "Kolera, klasična", Alternate: ""},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleEntries))

	want := "code|description_serbian|description_latin\n" +
		"A00|Kolera|Cholera\n" +
		"A00.0|Kolera, klasična|\n"
	assert.Equal(t, want, buf.String())
}

func TestExportEntriesToCSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "mkb.csv")
	require.NoError(t, ExportEntriesToCSV(sampleEntries, out))

	blob, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(blob), "A00|Kolera|Cholera")
}

func TestExportEntriesToXLSX(t *testing.T) {
	out := filepath.Join(t.TempDir(), "mkb.xlsx")
	require.NoError(t, ExportEntriesToXLSX(sampleEntries, out))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"code", "description_serbian", "description_latin"}, rows[0])
	assert.Equal(t, []string{"A00", "Kolera", "Cholera"}, rows[1])
	assert.Equal(t, "A00.0", rows[2][0])
}
