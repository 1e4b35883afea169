package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mkbscrape/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestReplaceEntriesListsInCodeOrder(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.ReplaceEntries([]internal.Entry{
		{Code: "A10", Primary: "Deset"},
		{Code: "B00", Primary: "Herpes simpleks", Alternate: "Herpes simplex"},
		{Code: "A09", Primary: "Devet"},
		{Code: "A09.1", Primary: "Devet jedan"},
	}))

	entries, err := db.ListEntries()
	require.NoError(t, err)

	codes := []string{}
	for _, e := range entries {
		codes = append(codes, e.Code)
	}
	assert.Equal(t, []string{"A09", "A09.1", "A10", "B00"}, codes)
	assert.Equal(t, "Herpes simplex", entries[3].Alternate)
}

func TestReplaceEntriesDropsPreviousCatalogue(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.ReplaceEntries([]internal.Entry{{Code: "A00", Primary: "Kolera"}}))
	require.NoError(t, db.ReplaceEntries([]internal.Entry{{Code: "B00", Primary: "Herpes"}}))

	gone, err := db.GetEntry("A00")
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := db.GetEntry("B00")
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, "Herpes", kept.Primary)

	byPrefix, err := db.ListEntriesByPrefix("B")
	require.NoError(t, err)
	assert.Len(t, byPrefix, 1)
}

func TestRunsAndPagesRoundTrip(t *testing.T) {
	db := openTestDB(t)

	runID, err := db.InsertRun(internal.SyncRun{
		TraceID:    "trace-1",
		Status:     internal.RunOK,
		Pages:      2,
		Candidates: 7,
		Entries:    5,
		StartedAt:  "2026-01-01T00:00:00Z",
		FinishedAt: "2026-01-01T00:01:00Z",
	})
	require.NoError(t, err)

	require.NoError(t, db.InsertPages(runID, []internal.PageResult{
		{URL: "https://example.test/mkb", Index: true},
		{URL: "https://example.test/mkb/a00-a09", Range: &internal.CodeRange{Start: "A00", End: "A09"}, Entries: 7},
	}))

	runs, err := db.ListRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "trace-1", runs[0].TraceID)
	assert.Equal(t, internal.RunOK, runs[0].Status)

	pages, err := db.ListPages(runID)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.True(t, pages[0].Index)
	assert.Nil(t, pages[0].Range)
	assert.Equal(t, &internal.CodeRange{Start: "A00", End: "A09"}, pages[1].Range)
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)

	missing, err := db.GetMetadata("catalog.last_sync")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, db.SetMetadata("catalog.last_sync", "a"))
	require.NoError(t, db.SetMetadata("catalog.last_sync", "b"))
	value, err := db.GetMetadata("catalog.last_sync")
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, "b", *value)
}
