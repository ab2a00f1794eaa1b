// Package store persists chat history locally in SQLite so past sessions
// survive restarts. Persistence is best-effort: the chat flow never blocks
// on a history failure.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"thoth/internal/logging"
)

// Turn is one recorded message in a session.
type Turn struct {
	SessionID string
	Turn      int
	Sender    string
	Text      string
	CreatedAt time.Time
}

// SessionInfo summarizes one recorded session for the session list.
type SessionInfo struct {
	SessionID string
	Turns     int
	LastAt    time.Time
}

// HistoryStore is the SQLite-backed chat history.
type HistoryStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewHistoryStore opens (creating if needed) the history database at path.
func NewHistoryStore(path string) (*HistoryStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreWarn("failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreWarn("failed to set sqlite journal_mode=WAL: %v", err)
	}

	s := &HistoryStore{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logging.Store("history store opened at %s", path)
	return s, nil
}

func (s *HistoryStore) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS chat_turns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			turn_number INTEGER NOT NULL,
			sender TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_chat_turns_session
			ON chat_turns(session_id, turn_number);
	`)
	return err
}

// StoreTurn records one message. Implements chat.Recorder.
func (s *HistoryStore) StoreTurn(sessionID string, turn int, sender, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO chat_turns (session_id, turn_number, sender, text) VALUES (?, ?, ?, ?)`,
		sessionID, turn, sender, text,
	)
	if err != nil {
		return fmt.Errorf("failed to store turn: %w", err)
	}
	return nil
}

// SessionHistory returns the most recent turns of a session in timeline
// order. limit <= 0 means all turns.
func (s *HistoryStore) SessionHistory(sessionID string, limit int) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT session_id, turn_number, sender, text, created_at
		FROM chat_turns WHERE session_id = ? ORDER BY turn_number`
	args := []interface{}{sessionID}
	if limit > 0 {
		query = `SELECT session_id, turn_number, sender, text, created_at FROM (
			SELECT session_id, turn_number, sender, text, created_at
			FROM chat_turns WHERE session_id = ?
			ORDER BY turn_number DESC LIMIT ?
		) ORDER BY turn_number`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.SessionID, &t.Turn, &t.Sender, &t.Text, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Sessions lists recorded sessions, most recently active first.
func (s *HistoryStore) Sessions(limit int) ([]SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT session_id, COUNT(*), MAX(created_at)
		FROM chat_turns GROUP BY session_id
		ORDER BY MAX(created_at) DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.SessionID, &info.Turns, &info.LastAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, info)
	}
	return sessions, rows.Err()
}

// Close closes the underlying database.
func (s *HistoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
