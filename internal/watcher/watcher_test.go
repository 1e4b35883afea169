package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mkbscrape/internal"
	"mkbscrape/internal/logger"
	"mkbscrape/internal/storage"
)

type fakeSyncer struct {
	db    *storage.DB
	calls int
	err   error
}

func (f *fakeSyncer) Sync(context.Context) (internal.SyncRun, error) {
	f.calls++
	if f.err != nil {
		return internal.SyncRun{Status: internal.RunFailed}, f.err
	}
	entries := []internal.Entry{
		{Code: "B00", Primary: "Herpes simpleks", Alternate: "Herpes simplex"},
		{Code: "A00", Primary: "Kolera", Alternate: "Cholera"},
	}
	if err := f.db.ReplaceEntries(entries); err != nil {
		return internal.SyncRun{}, err
	}
	return internal.SyncRun{TraceID: "t", Status: internal.RunOK, Entries: len(entries)}, nil
}

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunCycleExportsCatalogue(t *testing.T) {
	db := openTestDB(t)
	outDir := t.TempDir()
	svc := NewService(db, &fakeSyncer{db: db}, Options{Interval: time.Hour, AutoExport: true, OutputDir: outDir}, logger.NewNop())

	require.NoError(t, svc.RunCycle(context.Background()))

	blob, err := os.ReadFile(filepath.Join(outDir, ExportCSVName))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(blob)), "\n")
	assert.Equal(t, []string{
		"code|description_serbian|description_latin",
		"A00|Kolera|Cholera",
		"B00|Herpes simpleks|Herpes simplex",
	}, lines)
	assert.FileExists(t, filepath.Join(outDir, ExportXLSXName))
}

func TestRunCycleWithoutExport(t *testing.T) {
	db := openTestDB(t)
	outDir := t.TempDir()
	svc := NewService(db, &fakeSyncer{db: db}, Options{Interval: time.Hour, OutputDir: outDir}, logger.NewNop())

	require.NoError(t, svc.RunCycle(context.Background()))
	assert.NoFileExists(t, filepath.Join(outDir, ExportCSVName))
}

func TestRunKeepsGoingAfterFailedCycle(t *testing.T) {
	db := openTestDB(t)
	syncer := &fakeSyncer{db: db, err: errors.New("site down")}
	svc := NewService(db, syncer, Options{Interval: 10 * time.Millisecond, OutputDir: t.TempDir()}, logger.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, svc.Run(ctx))
	assert.Greater(t, syncer.calls, 1)
}
