// Package dbtest provides an in-memory SQLite database with the mapper tables
// already created, for use in tests.
package dbtest

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/iso8583-persistence/internal/database"
)

// DDL creates the two mapper relations. The foreign key mirrors the production schema.
var DDL = []string{
	`CREATE TABLE iso8583_mapper (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description VARCHAR(255)
	)`,
	`CREATE TABLE iso8583_dataelement (
		id VARCHAR(36) PRIMARY KEY,
		id_mapper VARCHAR(36) NOT NULL REFERENCES iso8583_mapper(id),
		dataelement_number INT,
		dataelement_type VARCHAR(255) NOT NULL,
		dataelement_length_type VARCHAR(255) NOT NULL,
		dataelement_length INT,
		dataelement_length_prefix INT
	)`,
}

// NewSQLite opens a fresh in-memory database, applies DDL and closes it on cleanup.
func NewSQLite(t testing.TB) *database.SQLDatabase {
	t.Helper()
	db, err := database.NewSQLiteDatabase(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	for _, stmt := range DDL {
		_, err := db.DB().Exec(stmt)
		require.NoError(t, err)
	}
	return db
}
