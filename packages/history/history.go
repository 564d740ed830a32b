// Package history keeps a local SQLite log of executed requests.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const timeLayout = "2006-01-02 15:04:05"

// Entry is one recorded execution. StatusCode is zero when the execution
// failed before a status line arrived; Error carries the failure text.
type Entry struct {
	ID         int64
	CreatedAt  time.Time
	Method     string
	URL        string
	StatusCode int
	DurationMS int64
	Error      string
}

// Store is an open history database. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS executions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at DATETIME NOT NULL,
	method TEXT NOT NULL,
	url TEXT NOT NULL,
	status_code INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	error TEXT
);

CREATE INDEX IF NOT EXISTS idx_executions_created_at ON executions(created_at DESC);
`

// Open opens the history database at path, creating the file, its parent
// directory and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Record appends an entry to the log. A zero CreatedAt is stamped with the
// current time.
func (s *Store) Record(entry Entry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.Exec(
		`INSERT INTO executions (created_at, method, url, status_code, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		createdAt.UTC().Format(timeLayout),
		entry.Method,
		entry.URL,
		entry.StatusCode,
		entry.DurationMS,
		entry.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record execution: %w", err)
	}

	return nil
}

// List returns the most recent entries, newest first. A non-positive limit
// returns everything.
func (s *Store) List(limit int) ([]Entry, error) {
	query := `SELECT id, created_at, method, url, status_code, duration_ms, COALESCE(error, '')
	          FROM executions ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var createdAt string
		if err := rows.Scan(&entry.ID, &createdAt, &entry.Method, &entry.URL,
			&entry.StatusCode, &entry.DurationMS, &entry.Error); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		if ts, err := time.ParseInLocation(timeLayout, createdAt, time.UTC); err == nil {
			entry.CreatedAt = ts
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// Clear removes every entry.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM executions"); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Count returns the number of recorded entries.
func (s *Store) Count() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM executions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count history entries: %w", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
