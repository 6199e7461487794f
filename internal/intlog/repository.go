// Package intlog provides the append-only integration action log.
//
// Every invocation of an integration action is recorded here, success
// or failure, and the log is the sole source of truth for workflow
// position: the phase model derives "where are we" purely from these
// entries, nothing else is persisted.
//
// Storage is backed by a SQLite database at ~/.config/ggbridge/ggbridge.db
// (or the platform-equivalent path returned by os.UserConfigDir).
package intlog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bhmc/ggbridge/internal/domain"

	_ "modernc.org/sqlite"
)

const (
	appDir = "ggbridge"
	dbFile = "ggbridge.db"
)

// ErrUnavailable wraps transient storage failures so callers can
// distinguish "the log store is down" from "the query matched nothing".
var ErrUnavailable = errors.New("action log unavailable")

// pathOverride, when non-empty, replaces the default database path.
// Intended for testing. Use SetPath / ResetPath to manage.
var pathOverride string

// SetPath overrides the database path. Intended for testing.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the path override. Intended for testing.
func ResetPath() { pathOverride = "" }

// Repository defines the persistence interface for log entries.
type Repository interface {
	// Append durably inserts one entry. Entries are never updated or
	// deleted by the core; ID and a zero ActionDate are filled in.
	Append(entry *Entry) error

	// ListByEvent returns all entries for an event, newest first.
	// actionName, when non-empty, narrows the result to one action.
	ListByEvent(eventID int64, actionName domain.ActionName) ([]Entry, error)

	// DeleteOlderThan removes entries older than d. Operator tooling
	// only; the orchestration core never calls it.
	DeleteOlderThan(d time.Duration) (int64, error)

	// Close releases database resources.
	Close() error
}

// SQLiteRepository implements Repository backed by a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// DefaultPath returns the default database path.
func DefaultPath() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("intlog: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, dbFile), nil
}

// Open creates or opens the log repository at the default path.
func Open() (*SQLiteRepository, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return OpenAt(path)
}

// OpenAt creates or opens a SQLite database at the given path.
// The parent directory is created if it does not exist.
func OpenAt(path string) (*SQLiteRepository, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("intlog: failed to create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("intlog: failed to open database: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return r, nil
}

// migrate creates the log table if it doesn't exist.
func (r *SQLiteRepository) migrate() error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS integration_log (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id      INTEGER NOT NULL,
			action_name   TEXT    NOT NULL,
			action_date   TEXT    NOT NULL,
			is_successful INTEGER NOT NULL DEFAULT 0,
			details       TEXT    NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_integration_log_event ON integration_log(event_id);
	`
	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("intlog: migration failed: %w", err)
	}
	return nil
}

// Append inserts a new entry. The entry's ID is assigned on success and
// a zero ActionDate defaults to now. There is no update path: records
// of past runs are immutable.
func (r *SQLiteRepository) Append(entry *Entry) error {
	if entry.ActionDate.IsZero() {
		entry.ActionDate = time.Now().UTC()
	}

	successful := 0
	if entry.IsSuccessful {
		successful = 1
	}

	result, err := r.db.Exec(`
		INSERT INTO integration_log (event_id, action_name, action_date, is_successful, details)
		VALUES (?, ?, ?, ?, ?)`,
		entry.EventID, string(entry.ActionName),
		entry.ActionDate.Format(time.RFC3339Nano), successful, entry.Details,
	)
	if err != nil {
		return fmt.Errorf("intlog: insert failed: %w: %w", ErrUnavailable, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("intlog: failed to get last insert ID: %w", err)
	}
	entry.ID = id
	return nil
}

// ListByEvent returns all entries for eventID, newest first.
func (r *SQLiteRepository) ListByEvent(eventID int64, actionName domain.ActionName) ([]Entry, error) {
	query := `
		SELECT id, event_id, action_name, action_date, is_successful, details
		FROM integration_log WHERE event_id = ?`
	args := []any{eventID}
	if actionName != "" {
		query += ` AND action_name = ?`
		args = append(args, string(actionName))
	}
	query += ` ORDER BY action_date DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("intlog: query failed: %w: %w", ErrUnavailable, err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// DeleteOlderThan removes entries older than d.
func (r *SQLiteRepository) DeleteOlderThan(d time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-d).Format(time.RFC3339Nano)
	result, err := r.db.Exec(`DELETE FROM integration_log WHERE action_date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("intlog: delete failed: %w", err)
	}
	return result.RowsAffected()
}

// Close releases database resources.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// scanRows scans result rows into Entry values.
func scanRows(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var entry Entry
		var actionName, dateStr string
		var successful int
		err := rows.Scan(
			&entry.ID, &entry.EventID, &actionName, &dateStr, &successful, &entry.Details,
		)
		if err != nil {
			return nil, fmt.Errorf("intlog: scan failed: %w", err)
		}
		entry.ActionName = domain.ActionName(actionName)
		entry.IsSuccessful = successful != 0
		entry.ActionDate, _ = time.Parse(time.RFC3339Nano, dateStr)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("intlog: iteration failed: %w: %w", ErrUnavailable, err)
	}
	return entries, nil
}
