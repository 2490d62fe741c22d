package internal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS messages (
	message_id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	timestamp  TEXT,
	state      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS messages_session ON messages(session_id, seq);
CREATE TABLE IF NOT EXISTS agent_logs (
	log_id     TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	type       TEXT NOT NULL,
	title      TEXT NOT NULL,
	detail     TEXT,
	status     TEXT NOT NULL,
	timestamp  TEXT
);
CREATE INDEX IF NOT EXISTS agent_logs_session ON agent_logs(session_id, seq);`

// ExchangeRecord is one finished exchange as written to the archive
type ExchangeRecord struct {
	SessionID string
	User      Message
	Assistant Message
	Logs      []AgentLog
	State     ExchangeState
}

// ArchivedMessage is a message row read back from the archive
type ArchivedMessage struct {
	SessionID string
	Message   Message
	State     string
}

// ArchivedSession summarizes one session in the archive
type ArchivedSession struct {
	SessionID    string
	MessageCount int
	LastActivity string
}

// Archive is a local SQLite record of finished exchanges
type Archive struct {
	db *sql.DB
}

// OpenArchive opens or creates the archive database at path
func OpenArchive(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &CacheError{Path: path, Op: "open", Err: err}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive ping failed: %w", err)
	}
	return NewArchive(db)
}

// NewArchive wraps an open database, creating the schema if needed
func NewArchive(db *sql.DB) (*Archive, error) {
	// modernc sqlite connections do not share an in-memory database
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(archiveSchema); err != nil {
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the database
func (a *Archive) Close() error {
	return a.db.Close()
}

// RecordExchange stores both messages and the logs of a finished exchange
func (a *Archive) RecordExchange(rec ExchangeRecord) error {
	if rec.SessionID == "" {
		return fmt.Errorf("exchange has no session id")
	}

	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var seq int
	if err := tx.QueryRow("SELECT COALESCE(MAX(seq), -1) + 1 FROM messages WHERE session_id = ?", rec.SessionID).Scan(&seq); err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	for _, msg := range []Message{rec.User, rec.Assistant} {
		if msg.ID == "" {
			continue
		}
		_, err := tx.Exec(`INSERT OR REPLACE INTO messages (message_id, session_id, seq, role, content, timestamp, state)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			msg.ID, rec.SessionID, seq, string(msg.Role), msg.Content, msg.Timestamp, rec.State.String())
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		seq++
	}

	var logSeq int
	if err := tx.QueryRow("SELECT COALESCE(MAX(seq), -1) + 1 FROM agent_logs WHERE session_id = ?", rec.SessionID).Scan(&logSeq); err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	for _, l := range rec.Logs {
		_, err := tx.Exec(`INSERT OR REPLACE INTO agent_logs (log_id, session_id, seq, type, title, detail, status, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, rec.SessionID, logSeq, string(l.Type), l.Title, l.Detail, string(l.Status), l.Timestamp)
		if err != nil {
			return fmt.Errorf("insert log: %w", err)
		}
		logSeq++
	}

	return tx.Commit()
}

// History returns archived messages, newest last. An empty sessionID
// covers every session; limit <= 0 means no limit.
func (a *Archive) History(sessionID string, limit int) ([]ArchivedMessage, error) {
	query := "SELECT session_id, message_id, role, content, timestamp, state FROM messages"
	var args []any
	if sessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY rowid DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []ArchivedMessage
	for rows.Next() {
		var m ArchivedMessage
		var role string
		var ts sql.NullString
		if err := rows.Scan(&m.SessionID, &m.Message.ID, &role, &m.Message.Content, &ts, &m.State); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		m.Message.Role = Role(role)
		m.Message.Timestamp = ts.String
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Sessions lists every archived session with its message count
func (a *Archive) Sessions() ([]ArchivedSession, error) {
	rows, err := a.db.Query(`SELECT session_id, COUNT(*), COALESCE(MAX(timestamp), '')
		FROM messages GROUP BY session_id ORDER BY MAX(rowid) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []ArchivedSession
	for rows.Next() {
		var s ArchivedSession
		if err := rows.Scan(&s.SessionID, &s.MessageCount, &s.LastActivity); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Transcript rebuilds a session's messages and activity feed
func (a *Archive) Transcript(sessionID string) (*Transcript, error) {
	msgs, err := a.History(sessionID, 0)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("session not found in archive: %s", sessionID)
	}

	t := &Transcript{SessionID: sessionID, Messages: make([]Message, 0, len(msgs))}
	for _, m := range msgs {
		t.Messages = append(t.Messages, m.Message)
	}

	rows, err := a.db.Query(`SELECT log_id, type, title, detail, status, timestamp
		FROM agent_logs WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l AgentLog
		var typ, status string
		var detail, ts sql.NullString
		if err := rows.Scan(&l.ID, &typ, &l.Title, &detail, &status, &ts); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		l.Type = LogType(typ)
		l.Status = LogStatus(status)
		l.Detail = detail.String
		l.Timestamp = ts.String
		t.Logs = append(t.Logs, l)
	}
	return t, rows.Err()
}

// DeleteSession removes every row of a session
func (a *Archive) DeleteSession(sessionID string) error {
	if _, err := a.db.Exec("DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := a.db.Exec("DELETE FROM agent_logs WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("delete logs: %w", err)
	}
	return nil
}
