package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is an in-memory SQLite database holding one run's extraction results
// for cross-referencing. Nothing is written to disk.
type Store struct {
	db *sql.DB
}

// Open creates an empty in-memory Store with its schema applied.
func Open() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates all tables. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS bindings (
  path     TEXT PRIMARY KEY,
  handler  TEXT NOT NULL,
  ordinal  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS spec_paths (
  path     TEXT PRIMARY KEY,
  methods  TEXT NOT NULL,
  ordinal  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS mentions (
  test     TEXT NOT NULL,
  handler  TEXT NOT NULL,
  PRIMARY KEY (test, handler)
);

CREATE INDEX IF NOT EXISTS idx_bindings_handler ON bindings(handler);
CREATE INDEX IF NOT EXISTS idx_mentions_handler ON mentions(handler);
`
