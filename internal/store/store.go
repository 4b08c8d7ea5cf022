// Package store persists the chat to YouTrack credential mapping in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// User is one persisted chat linkage.
type User struct {
	ChatID int64
	URL    string
	Token  string
}

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the database at dbPath and applies
// migrations. The parent directory is created with restricted permissions.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read user_version: %w", err)
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS users (
		  chat_id        INTEGER PRIMARY KEY,
		  youtrack_url   TEXT NOT NULL,
		  youtrack_token TEXT NOT NULL
		);`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", CurrentSchemaVersion)); err != nil {
			return fmt.Errorf("failed to set user_version: %w", err)
		}
	}

	return nil
}

// Get returns the persisted user for a chat, or nil if the chat is not linked.
func (s *Store) Get(chatID int64) (*User, error) {
	row := s.db.QueryRow(`SELECT chat_id, youtrack_url, youtrack_token FROM users WHERE chat_id = ?`, chatID)
	var u User
	if err := row.Scan(&u.ChatID, &u.URL, &u.Token); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user %d: %w", chatID, err)
	}
	return &u, nil
}

// Put inserts or replaces the credential row for a chat.
func (s *Store) Put(u User) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO users (chat_id, youtrack_url, youtrack_token) VALUES (?, ?, ?)`,
		u.ChatID, u.URL, u.Token,
	)
	if err != nil {
		return fmt.Errorf("failed to persist user %d: %w", u.ChatID, err)
	}
	return nil
}

// Delete removes the credential row for a chat. Deleting an unknown chat
// is not an error.
func (s *Store) Delete(chatID int64) error {
	if _, err := s.db.Exec(`DELETE FROM users WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", chatID, err)
	}
	return nil
}

// All returns every persisted user. Used at startup to restore configured
// chats and restart their pollers.
func (s *Store) All() ([]User, error) {
	rows, err := s.db.Query(`SELECT chat_id, youtrack_url, youtrack_token FROM users`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ChatID, &u.URL, &u.Token); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
