package database

import (
	"fmt"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
)

// NewSQLiteDatabase opens a SQLite database at path with foreign keys enforced.
// A single connection is used so ":memory:" databases are shared by all callers.
func NewSQLiteDatabase(path string, logger zerolog.Logger) (*SQLDatabase, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := openPool("sqlite", path, Config{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return NewSQLDatabase(db, core.DialectSQLite, logger), nil
}
