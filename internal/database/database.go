// Package database provides core.Database implementations over database/sql
// for MySQL, PostgreSQL and SQLite.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
)

// sqlOpen is swapped in tests.
var sqlOpen = sql.Open

// Config carries everything needed to open a pooled connection.
type Config struct {
	Type     string
	Host     string
	Port     int
	Database string
	Username string
	Password string

	// SSLMode applies to PostgreSQL only (e.g., "disable", "require").
	SSLMode string

	// Path is the SQLite file path. ":memory:" opens a private in-memory database.
	Path string

	MaxOpenConns      int
	MaxIdleConns      int
	ConnMaxLifetime   time.Duration
	ConnMaxIdleTime   time.Duration
	ConnectionTimeout time.Duration
}

// Open dispatches on cfg.Type.
func Open(cfg Config, logger zerolog.Logger) (*SQLDatabase, error) {
	switch core.Dialect(cfg.Type) {
	case core.DialectMySQL:
		return NewMySQLDatabase(cfg, logger)
	case core.DialectPostgres:
		return NewPostgresDatabase(cfg, logger)
	case core.DialectSQLite:
		return NewSQLiteDatabase(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// SQLDatabase implements core.Database on top of a *sql.DB.
type SQLDatabase struct {
	db      *sql.DB
	dialect core.Dialect
	logger  zerolog.Logger
	closed  atomic.Bool
}

// NewSQLDatabase wraps an already opened pool. Statements are rebound for dialect.
func NewSQLDatabase(db *sql.DB, dialect core.Dialect, logger zerolog.Logger) *SQLDatabase {
	return &SQLDatabase{
		db:      db,
		dialect: dialect,
		logger:  logger.With().Str("component", "database").Str("dialect", string(dialect)).Logger(),
	}
}

func openPool(driver, dsn string, cfg Config) (*sql.DB, error) {
	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	timeout := cfg.ConnectionTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Query executes a SELECT query and returns rows.
func (d *SQLDatabase) Query(ctx context.Context, query string, args ...interface{}) (core.Rows, error) {
	if d.closed.Load() {
		return nil, core.ErrDatabaseClosed
	}
	query = d.dialect.Rebind(query)
	d.logger.Debug().Str("query", query).Interface("args", args).Msg("executing query")
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		d.logger.Error().Err(err).Str("query", query).Msg("query failed")
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return rows, nil
}

// Exec executes a non-query statement and returns a result.
func (d *SQLDatabase) Exec(ctx context.Context, query string, args ...interface{}) (core.Result, error) {
	if d.closed.Load() {
		return nil, core.ErrDatabaseClosed
	}
	query = d.dialect.Rebind(query)
	d.logger.Debug().Str("query", query).Interface("args", args).Msg("executing statement")
	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		d.logger.Error().Err(err).Str("query", query).Msg("statement failed")
		return nil, fmt.Errorf("failed to execute statement: %w", err)
	}
	return result, nil
}

// BeginTx starts a new transaction.
func (d *SQLDatabase) BeginTx(ctx context.Context) (core.Transaction, error) {
	if d.closed.Load() {
		return nil, core.ErrDatabaseClosed
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &sqlTransaction{tx: tx, dialect: d.dialect, logger: d.logger}, nil
}

// Dialect reports the SQL flavour of the pool.
func (d *SQLDatabase) Dialect() core.Dialect {
	return d.dialect
}

// DB exposes the underlying pool, e.g. for test fixtures.
func (d *SQLDatabase) DB() *sql.DB {
	return d.db
}

// Close closes the database connection pool.
func (d *SQLDatabase) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	return d.db.Close()
}

// sqlTransaction wraps sql.Tx to implement core.Transaction.
type sqlTransaction struct {
	tx      *sql.Tx
	dialect core.Dialect
	logger  zerolog.Logger
}

func (t *sqlTransaction) Query(ctx context.Context, query string, args ...interface{}) (core.Rows, error) {
	query = t.dialect.Rebind(query)
	t.logger.Debug().Str("query", query).Interface("args", args).Msg("executing query in transaction")
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return rows, nil
}

func (t *sqlTransaction) Exec(ctx context.Context, query string, args ...interface{}) (core.Result, error) {
	query = t.dialect.Rebind(query)
	t.logger.Debug().Str("query", query).Interface("args", args).Msg("executing statement in transaction")
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute statement: %w", err)
	}
	return result, nil
}

func (t *sqlTransaction) Commit() error {
	return t.tx.Commit()
}

func (t *sqlTransaction) Rollback() error {
	return t.tx.Rollback()
}
