package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mkbscrape/internal"
)

func TestSmokeListGroupPageToCSV(t *testing.T) {
	tmp := t.TempDir()
	page := filepath.Join(tmp, "a00-a09.html")
	require.NoError(t, os.WriteFile(page, []byte(listGroupHTML), 0o644))

	entries, err := ExtractEntriesFromInput("file", page, DefaultVocabulary())
	require.NoError(t, err)

	assert.Equal(t, []internal.Entry{
		{Code: "A00", Primary: "Kolera NOVA", Alternate: "Cholera"},
		{Code: "A00.0", Primary: "Kolera, uzročnik Vibrio cholerae 01,biotip cholerae", Alternate: "Cholera classica"},
	}, entries)

	out := filepath.Join(tmp, "out", "mkb.csv")
	require.NoError(t, ExportEntriesToCSV(entries, out))
	_, err = os.Stat(out)
	require.NoError(t, err)
}

func TestExtractEntriesFromInputRejectsUnknownType(t *testing.T) {
	_, err := ExtractEntriesFromInput("pdf", "x", DefaultVocabulary())
	assert.Error(t, err)
}
