package db

import (
	"database/sql"
	"os"
	"path/filepath"

	"reportcard-backend/internal/config"

	_ "github.com/mattn/go-sqlite3"
)

// NewConnection opens the store file, creating its directory if needed.
// The DSN enables WAL, a busy timeout and foreign keys; SQLite serializes
// writers itself, the app only absorbs the resulting lock errors.
func NewConnection(cfg *config.Config) (*sql.DB, error) {
	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", cfg.DatabaseDSN())
	if err != nil {
		return nil, err
	}

	// A single writer at a time keeps SQLITE_BUSY rare.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}
