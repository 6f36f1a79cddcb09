// Package history keeps chat transcripts in SQLite.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var (
	ErrNoSession     = errors.New("no such session")
	ErrAmbiguous     = errors.New("session prefix matches more than one session")
	ErrUnknownFormat = errors.New("unknown export format")
)

type Session struct {
	ID           string
	StartedAt    time.Time
	Provider     string
	Model        string
	MessageCount int
}

type Message struct {
	Role      string
	Content   string
	CreatedAt time.Time
}

type sessionRow struct {
	ID           string `db:"id"`
	StartedAt    int64  `db:"started_at"`
	Provider     string `db:"provider"`
	Model        string `db:"model"`
	MessageCount int    `db:"message_count"`
}

type messageRow struct {
	Role      string `db:"role"`
	Content   string `db:"content"`
	CreatedAt int64  `db:"created_at"`
}

// Store is a transcript database. Record and NewSession follow the current
// session so the chat service can log into it without tracking ids.
type Store struct {
	conn     *sqlx.DB
	now      func() time.Time
	mu       sync.Mutex
	current  string
	provider string
	model    string
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn, now: time.Now}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Bind sets the provider and model stamped on sessions started by Record.
func (s *Store) Bind(provider, model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = provider
	s.model = model
}

// StartSession creates a session and returns its id.
func (s *Store) StartSession(provider, model string) (string, error) {
	id := uuid.NewString()
	_, err := s.conn.Exec(
		"INSERT INTO sessions (id, started_at, provider, model) VALUES (?, ?, ?, ?)",
		id, s.now().UnixMilli(), provider, model,
	)
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	slog.Debug("history session started", "session", id, "provider", provider, "model", model)
	return id, nil
}

// Append adds a message to a session.
func (s *Store) Append(sessionID, role, content string) error {
	_, err := s.conn.Exec(
		"INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)",
		sessionID, role, content, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// Record appends to the current session, starting one on first use.
func (s *Store) Record(role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == "" {
		id, err := s.StartSession(s.provider, s.model)
		if err != nil {
			return err
		}
		s.current = id
	}
	return s.Append(s.current, role, content)
}

// NewSession makes the next Record start a fresh session.
func (s *Store) NewSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = ""
	return nil
}

// Sessions lists sessions, newest first.
func (s *Store) Sessions() ([]Session, error) {
	var rows []sessionRow
	err := s.conn.Select(&rows, `
		SELECT s.id, s.started_at, s.provider, s.model, COUNT(m.id) AS message_count
		FROM sessions s LEFT JOIN messages m ON m.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC, s.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]Session, len(rows))
	for i, r := range rows {
		sessions[i] = r.session()
	}
	return sessions, nil
}

func (r sessionRow) session() Session {
	return Session{
		ID:           r.ID,
		StartedAt:    time.UnixMilli(r.StartedAt),
		Provider:     r.Provider,
		Model:        r.Model,
		MessageCount: r.MessageCount,
	}
}

// Session resolves an id or a unique id prefix. An empty id picks the newest
// session.
func (s *Store) Session(id string) (Session, error) {
	var rows []sessionRow
	query := `
		SELECT s.id, s.started_at, s.provider, s.model, COUNT(m.id) AS message_count
		FROM sessions s LEFT JOIN messages m ON m.session_id = s.id
		WHERE s.id LIKE ? || '%'
		GROUP BY s.id
		ORDER BY s.started_at DESC, s.rowid DESC`
	if id == "" {
		query += " LIMIT 1"
	}
	if err := s.conn.Select(&rows, query, id); err != nil {
		return Session{}, fmt.Errorf("find session: %w", err)
	}

	switch {
	case len(rows) == 0:
		return Session{}, fmt.Errorf("%w: %s", ErrNoSession, id)
	case len(rows) > 1:
		return Session{}, fmt.Errorf("%w: %s", ErrAmbiguous, id)
	}
	return rows[0].session(), nil
}

// Messages returns a session's messages in order.
func (s *Store) Messages(sessionID string) ([]Message, error) {
	var rows []messageRow
	err := s.conn.Select(&rows,
		"SELECT role, content, created_at FROM messages WHERE session_id = ? ORDER BY id",
		sessionID,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]Message, len(rows))
	for i, r := range rows {
		messages[i] = Message{Role: r.Role, Content: r.Content, CreatedAt: time.UnixMilli(r.CreatedAt)}
	}
	return messages, nil
}

// Clear deletes every session.
func (s *Store) Clear() error {
	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM sessions"); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = ""
	s.mu.Unlock()
	return nil
}
