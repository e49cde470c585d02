// Package journal keeps an append-only audit trail of queue mutations in
// SQLite. The queue itself deletes cancelled records outright; the journal
// is where cancellations (and every other mutation) remain visible to the
// operator afterward.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Action identifies the queue mutation an event records.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionCancel  Action = "cancel"
	ActionDone    Action = "done"
	ActionReset   Action = "reset"
	ActionRestore Action = "restore"
)

// Event is one journal row.
type Event struct {
	ID          int64
	EventID     string
	Action      Action
	RequesterID int64
	DisplayName string
	Detail      string
	CreatedAt   time.Time
}

// Journal manages the audit database.
type Journal struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS journal_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id TEXT NOT NULL,
    action TEXT NOT NULL,
    requester_id INTEGER NOT NULL DEFAULT 0,
    display_name TEXT NOT NULL DEFAULT '',
    detail TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_journal_events_created_at ON journal_events(created_at);
`

// Open initializes or connects to the journal database.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}

	return &Journal{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends one event. Requester fields may be zero for queue-wide
// actions like reset.
func (j *Journal) Record(ctx context.Context, action Action, requesterID int64, displayName, detail string) error {
	_, err := j.db.ExecContext(
		ctx,
		`INSERT INTO journal_events (event_id, action, requester_id, display_name, detail, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		string(action),
		requesterID,
		displayName,
		detail,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert journal event: %w", err)
	}
	return nil
}

// Recent returns the newest events, most recent first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(
		ctx,
		`SELECT id, event_id, action, requester_id, display_name, detail, created_at
         FROM journal_events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			evt        Event
			action     string
			createdRaw string
		)
		if err := rows.Scan(&evt.ID, &evt.EventID, &action, &evt.RequesterID, &evt.DisplayName, &evt.Detail, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan journal event: %w", err)
		}
		evt.Action = Action(action)
		if created, parseErr := time.Parse(time.RFC3339Nano, createdRaw); parseErr == nil {
			evt.CreatedAt = created
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}
