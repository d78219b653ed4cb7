package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

// Open opens the SQLite database at path, creating its directory if needed,
// applies migrations and returns a ready-to-use store together with the
// underlying *sql.DB, which the caller must close after the store.
func Open(path, journalMode string) (*SQLiteStore, *sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	runner := NewMigrationRunner(db)
	if journalMode != "" {
		runner.JournalMode = journalMode
	}
	if err := runner.Run(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create store: %w", err)
	}

	return store, db, nil
}
