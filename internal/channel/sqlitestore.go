package channel

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore keeps slots in a single SQLite database file, for setups where
// a directory of loose JSON files is unwelcome. SQLite has no cross-process
// change notification, so subscribers on this backend are serviced entirely
// by the reconciliation poll.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) the slot database.
func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS slots (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create slots schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Read(name string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM slots WHERE name = ?`, name).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read slot %q: %w", name, err)
	}
	return []byte(value), true, nil
}

func (s *SQLiteStore) Write(name string, data []byte) error {
	query := `
		INSERT INTO slots (name, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`
	if _, err := s.db.Exec(query, name, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write slot %q: %w", name, err)
	}
	return nil
}

// Watch is a no-op: the poll is the delivery mechanism for this backend.
func (s *SQLiteStore) Watch(ctx context.Context, onChange func(name string)) error {
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
