package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// storedTimeLayout has a fixed width so stored timestamps sort as text.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var ErrRunNotFound = errors.New("run not found")

// SQLiteStore is the run journal. It records what each sync or check did and
// is never read back to decide whether a worklog was already synced.
type SQLiteStore struct {
	db *sql.DB
}

type Run struct {
	ID          string
	Command     string
	WindowStart time.Time
	WindowEnd   time.Time
	DryRun      bool
	StartedAt   time.Time
	FinishedAt  time.Time
	Created     int
	Updated     int
	Unchanged   int
	Failed      int
}

// Finished reports whether FinishRun was called for the run.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

type WriteEntry struct {
	RunID     string
	SourceID  string
	IssueKey  string
	WorklogID string
	Action    string
	Error     string
	At        time.Time
}

type RunSummary struct {
	Created   int
	Updated   int
	Unchanged int
	Failed    int
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Writes arrive from several goroutines; one connection serializes them.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	command TEXT NOT NULL,
	window_start TEXT NOT NULL,
	window_end TEXT NOT NULL,
	dry_run INTEGER NOT NULL DEFAULT 0,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL DEFAULT '',
	created INTEGER NOT NULL DEFAULT 0,
	updated INTEGER NOT NULL DEFAULT 0,
	unchanged INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS writes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	source_id TEXT NOT NULL,
	issue_key TEXT NOT NULL,
	worklog_id TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS writes_run_id ON writes(run_id);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// StartRun stores a new run. An empty run id is replaced by a random UUID.
func (s *SQLiteStore) StartRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, command, window_start, window_end, dry_run, started_at)
VALUES (?, ?, ?, ?, ?, ?);`,
		run.ID,
		run.Command,
		formatTime(run.WindowStart),
		formatTime(run.WindowEnd),
		boolToInt(run.DryRun),
		formatTime(run.StartedAt),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

func (s *SQLiteStore) RecordWrite(ctx context.Context, entry WriteEntry) error {
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO writes (run_id, source_id, issue_key, worklog_id, action, error, at)
VALUES (?, ?, ?, ?, ?, ?, ?);`,
		entry.RunID,
		entry.SourceID,
		entry.IssueKey,
		entry.WorklogID,
		entry.Action,
		entry.Error,
		formatTime(entry.At),
	)
	if err != nil {
		return fmt.Errorf("insert write of %s: %w", entry.SourceID, err)
	}
	return nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, summary RunSummary) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE runs
SET finished_at = ?, created = ?, updated = ?, unchanged = ?, failed = ?
WHERE id = ?;`,
		formatTime(time.Now().UTC()),
		summary.Created,
		summary.Updated,
		summary.Unchanged,
		summary.Failed,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, command, window_start, window_end, dry_run, started_at, finished_at, created, updated, unchanged, failed
FROM runs
ORDER BY started_at DESC, id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0, limit)
	for rows.Next() {
		var (
			run                    Run
			windowStart, windowEnd string
			startedAt, finishedAt  string
			dryRun                 int
		)
		if err := rows.Scan(
			&run.ID,
			&run.Command,
			&windowStart,
			&windowEnd,
			&dryRun,
			&startedAt,
			&finishedAt,
			&run.Created,
			&run.Updated,
			&run.Unchanged,
			&run.Failed,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.DryRun = dryRun != 0
		if run.WindowStart, err = parseTime(windowStart); err != nil {
			return nil, err
		}
		if run.WindowEnd, err = parseTime(windowEnd); err != nil {
			return nil, err
		}
		if run.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		if run.FinishedAt, err = parseTime(finishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (s *SQLiteStore) ListWrites(ctx context.Context, runID string) ([]WriteEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, source_id, issue_key, worklog_id, action, error, at
FROM writes
WHERE run_id = ?
ORDER BY id ASC;`, runID)
	if err != nil {
		return nil, fmt.Errorf("query writes: %w", err)
	}
	defer rows.Close()

	entries := make([]WriteEntry, 0)
	for rows.Next() {
		var (
			entry WriteEntry
			at    string
		)
		if err := rows.Scan(&entry.RunID, &entry.SourceID, &entry.IssueKey, &entry.WorklogID, &entry.Action, &entry.Error, &at); err != nil {
			return nil, fmt.Errorf("scan write: %w", err)
		}
		if entry.At, err = parseTime(at); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate writes: %w", err)
	}
	return entries, nil
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(storedTimeLayout)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(storedTimeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", value, err)
	}
	return parsed, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
