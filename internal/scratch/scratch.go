// Package scratch provides the local durable key-value store that keeps the
// serialized active session across restarts.
package scratch

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("scratch: key not found")

// ActiveSessionKey returns the key holding one user's serialized active
// session. The key carries the user id: sessions are per user, and an
// unscoped key would let a login switch resume someone else's workout.
func ActiveSessionKey(userID int) string {
	return fmt.Sprintf("active-session:%d", userID)
}

// Store is a SQLite-backed key-value scratch space.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the scratch database at dir/scratch.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating scratch dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "scratch.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening scratch db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS scratch (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating scratch table: %w", err)
	}

	return &Store{db: db}, nil
}

// Get returns the value stored under key, or ErrNotFound.
func (s *Store) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM scratch WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading scratch key %s: %w", key, err)
	}
	return value, nil
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO scratch (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing scratch key %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM scratch WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting scratch key %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
