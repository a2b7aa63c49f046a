// Package journal persists a history of finished capture sessions to
// SQLite, fed from the event bus.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"jordanella.com/chat-bridge-go/internal/events"
	"jordanella.com/chat-bridge-go/internal/logging"
)

// Entry is one finished session.
type Entry struct {
	ID        int64
	SessionID string
	Artifact  string
	Reason    string
	Frames    int
	Duration  time.Duration
	Delivered bool
	EndedAt   time.Time
}

// Journal wraps the SQLite session history.
type Journal struct {
	conn *sql.DB
	path string
	log  *logging.Logger

	subID events.SubscriptionID
	bus   events.EventBus
}

// Open opens or creates the journal database at dbPath.
func Open(dbPath string) (*Journal, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}

	// SQLite works best with a single connection
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	j := &Journal{
		conn: conn,
		path: dbPath,
		log:  logging.NewLogger("Journal"),
	}

	if err := j.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return j, nil
}

func (j *Journal) migrate() error {
	_, err := j.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id  TEXT NOT NULL UNIQUE,
			artifact    TEXT NOT NULL,
			reason      TEXT NOT NULL,
			frames      INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			delivered   INTEGER NOT NULL DEFAULT 0,
			ended_at    TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate journal schema: %w", err)
	}
	return nil
}

// Close detaches from the bus and closes the database.
func (j *Journal) Close() error {
	if j.bus != nil {
		j.bus.Unsubscribe(j.subID)
	}
	return j.conn.Close()
}

// Record inserts one finished session.
func (j *Journal) Record(e Entry) error {
	_, err := j.conn.Exec(`
		INSERT INTO sessions (session_id, artifact, reason, frames, duration_ms, delivered, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.SessionID, e.Artifact, e.Reason, e.Frames, e.Duration.Milliseconds(), e.Delivered, e.EndedAt)
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// Recent returns the most recently finished sessions, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := j.conn.Query(`
		SELECT id, session_id, artifact, reason, frames, duration_ms, delivered, ended_at
		FROM sessions ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMS int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Artifact, &e.Reason, &e.Frames, &durationMS, &e.Delivered, &e.EndedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// RecentSummaries formats the latest sessions as one-line summaries
// for chat display.
func (j *Journal) RecentSummaries(limit int) ([]string, error) {
	entries, err := j.Recent(limit)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s %s: %d frames in %s (%s)",
			e.EndedAt.Format("15:04:05"), e.SessionID, e.Frames,
			e.Duration.Round(time.Second), e.Reason))
	}
	return lines, nil
}

// SubscribeTo records every SessionFinished event published on bus.
func (j *Journal) SubscribeTo(bus events.EventBus) {
	j.bus = bus
	j.subID = bus.Subscribe(events.EventTypeSessionFinished, j.handleFinished)
}

func (j *Journal) handleFinished(event events.Event) {
	entry := Entry{
		SessionID: stringField(event.Data, "session_id"),
		Artifact:  stringField(event.Data, "artifact"),
		Reason:    stringField(event.Data, "reason"),
		EndedAt:   event.Timestamp,
	}
	if frames, ok := event.Data["frames"].(int); ok {
		entry.Frames = frames
	}
	if ms, ok := event.Data["duration_ms"].(int64); ok {
		entry.Duration = time.Duration(ms) * time.Millisecond
	}
	if delivered, ok := event.Data["delivered"].(bool); ok {
		entry.Delivered = delivered
	}

	if err := j.Record(entry); err != nil {
		j.log.Error("failed to journal session", err)
	}
}

func stringField(data map[string]interface{}, key string) string {
	if data == nil {
		return ""
	}
	s, _ := data[key].(string)
	return s
}
