package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	_ "modernc.org/sqlite"

	"mkbscrape/internal"
	"mkbscrape/internal/util"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS entries (
  code TEXT PRIMARY KEY,
  primaryText TEXT NOT NULL,
  alternateText TEXT NOT NULL DEFAULT '',
  prefix TEXT NOT NULL DEFAULT '',
  lastSeenAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_entries_prefix ON entries(prefix);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  status TEXT NOT NULL,
  pages INTEGER NOT NULL DEFAULT 0,
  candidates INTEGER NOT NULL DEFAULT 0,
  entries INTEGER NOT NULL DEFAULT 0,
  error TEXT NOT NULL DEFAULT '',
  startedAt TEXT NOT NULL,
  finishedAt TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pages (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  url TEXT NOT NULL,
  rangeStart TEXT,
  rangeEnd TEXT,
  entries INTEGER NOT NULL,
  isIndex INTEGER NOT NULL DEFAULT 0,
  FOREIGN KEY(runId) REFERENCES runs(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// ReplaceEntries swaps the stored catalogue for entries in one transaction,
// so readers never see a half-written catalogue.
func (d *DB) ReplaceEntries(entries []internal.Entry) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}

	stmt, err := tx.Prepare(`
INSERT INTO entries (code, primaryText, alternateText, prefix, lastSeenAt)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(code) DO UPDATE SET
  primaryText=excluded.primaryText,
  alternateText=excluded.alternateText,
  prefix=excluded.prefix,
  lastSeenAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		key := util.SortKeyOf(e.Code)
		if _, err := stmt.Exec(e.Code, e.Primary, e.Alternate, key.Prefix); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.Code, err)
		}
	}

	return tx.Commit()
}

// ListEntries returns the stored catalogue in code order. SQL collation
// cannot express the numeric part of the key, so ordering happens here.
func (d *DB) ListEntries() ([]internal.Entry, error) {
	return d.queryEntries(`SELECT code, primaryText, alternateText FROM entries`)
}

func (d *DB) ListEntriesByPrefix(prefix string) ([]internal.Entry, error) {
	return d.queryEntries(`SELECT code, primaryText, alternateText FROM entries WHERE prefix = ?`, prefix)
}

func (d *DB) queryEntries(query string, args ...any) ([]internal.Entry, error) {
	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Entry
	for rows.Next() {
		var e internal.Entry
		if err := rows.Scan(&e.Code, &e.Primary, &e.Alternate); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(out, func(a, b internal.Entry) int {
		return util.CompareCodes(a.Code, b.Code)
	})
	return out, nil
}

func (d *DB) GetEntry(code string) (*internal.Entry, error) {
	var e internal.Entry
	err := d.conn.QueryRow(`SELECT code, primaryText, alternateText FROM entries WHERE code = ?`, code).
		Scan(&e.Code, &e.Primary, &e.Alternate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (d *DB) CountEntries() (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n)
	return n, err
}

func (d *DB) InsertRun(run internal.SyncRun) (int64, error) {
	result, err := d.conn.Exec(`
INSERT INTO runs (traceId, status, pages, candidates, entries, error, startedAt, finishedAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, run.TraceID, string(run.Status), run.Pages, run.Candidates, run.Entries, run.Error, run.StartedAt, run.FinishedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (d *DB) ListRuns(limit int) ([]internal.SyncRun, error) {
	rows, err := d.conn.Query(`
SELECT id, traceId, status, pages, candidates, entries, error, startedAt, finishedAt
FROM runs ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.SyncRun
	for rows.Next() {
		var run internal.SyncRun
		var status string
		if err := rows.Scan(&run.ID, &run.TraceID, &status, &run.Pages, &run.Candidates, &run.Entries, &run.Error, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, err
		}
		run.Status = internal.RunStatus(status)
		out = append(out, run)
	}
	return out, rows.Err()
}

func (d *DB) InsertPages(runID int64, pages []internal.PageResult) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT INTO pages (runId, url, rangeStart, rangeEnd, entries, isIndex) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range pages {
		var start, end *string
		if p.Range != nil {
			start, end = &p.Range.Start, &p.Range.End
		}
		if _, err := stmt.Exec(runID, p.URL, start, end, p.Entries, p.Index); err != nil {
			return fmt.Errorf("insert page %s: %w", p.URL, err)
		}
	}

	return tx.Commit()
}

func (d *DB) ListPages(runID int64) ([]internal.PageResult, error) {
	rows, err := d.conn.Query(`SELECT url, rangeStart, rangeEnd, entries, isIndex FROM pages WHERE runId = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.PageResult
	for rows.Next() {
		var p internal.PageResult
		var start, end sql.NullString
		if err := rows.Scan(&p.URL, &start, &end, &p.Entries, &p.Index); err != nil {
			return nil, err
		}
		if start.Valid && end.Valid {
			p.Range = &internal.CodeRange{Start: start.String, End: end.String}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
