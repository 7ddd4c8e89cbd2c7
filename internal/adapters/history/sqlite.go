// Package history journals restart sequences in a small SQLite database so
// operators can see when and why the server was restarted.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
)

//go:embed migrations/001_restarts.sql
var migrationV1 string

// SQLiteJournal implements core.Journal with SQLite storage.
type SQLiteJournal struct {
	dbPath string
	db     *sql.DB
	mu     sync.Mutex
}

// NewSQLiteJournal opens (creating if needed) the journal at dbPath.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer; the monitor is single threaded anyway.
	db.SetMaxOpenConns(1)

	j := &SQLiteJournal{dbPath: dbPath, db: db}
	if err := j.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return j, nil
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

func (j *SQLiteJournal) migrate() error {
	var version int
	err := j.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		// Table doesn't exist yet
		version = 0
	}

	if version < 1 {
		if _, err := j.db.Exec(migrationV1); err != nil {
			return fmt.Errorf("applying migration v1: %w", err)
		}
	}
	return nil
}

// Record stores a restart event. A missing ID is filled with a new UUID.
func (j *SQLiteJournal) Record(ctx context.Context, event core.RestartEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO restarts (id, trigger, reading, started_at, finished_at, outcome, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			outcome = excluded.outcome,
			error = excluded.error
	`,
		event.ID, string(event.Trigger), event.Reading,
		event.StartedAt.UTC(), event.FinishedAt.UTC(),
		string(event.Outcome), nullableString(event.Error),
	)
	if err != nil {
		return fmt.Errorf("recording restart %s: %w", event.ID, err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (j *SQLiteJournal) Recent(ctx context.Context, limit int) ([]core.RestartEvent, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, trigger, reading, started_at, finished_at, outcome, error
		FROM restarts
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying restarts: %w", err)
	}
	defer rows.Close()

	var events []core.RestartEvent
	for rows.Next() {
		var (
			e                 core.RestartEvent
			trigger, outcome  string
			started, finished time.Time
			errText           sql.NullString
		)
		if err := rows.Scan(&e.ID, &trigger, &e.Reading, &started, &finished, &outcome, &errText); err != nil {
			return nil, fmt.Errorf("scanning restart: %w", err)
		}
		e.Trigger = core.Trigger(trigger)
		e.Outcome = core.RestartOutcome(outcome)
		e.StartedAt = started
		e.FinishedAt = finished
		e.Error = errText.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// Path returns the database file path.
func (j *SQLiteJournal) Path() string {
	return j.dbPath
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// Verify that SQLiteJournal implements core.Journal.
var _ core.Journal = (*SQLiteJournal)(nil)
