// Package audit provides a SQLite-backed operational journal of session
// lifecycle and order-cancel events. It records what the client did, not
// market data.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Event is one journal entry.
type Event struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
	Detail    string    `json:"detail,omitempty"`
}

// Recorder writes events to the journal. Safe for concurrent use.
type Recorder struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or opens the journal database at path.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	db.SetMaxOpenConns(2)

	r := &Recorder{db: db}
	if err := r.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}
	return r, nil
}

func (r *Recorder) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		event TEXT NOT NULL,
		detail TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Record writes one event. Journal failures are swallowed; the journal
// must never take an operation down with it.
func (r *Recorder) Record(ctx context.Context, event, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = r.db.ExecContext(ctx,
		"INSERT INTO events (timestamp, event, detail) VALUES (?, ?, ?)",
		time.Now().UTC(), event, detail)
}

// Recent returns the newest events, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, timestamp, event, detail FROM events ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Event, &detail); err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		e.Detail = detail.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close closes the journal database.
func (r *Recorder) Close() error {
	return r.db.Close()
}
