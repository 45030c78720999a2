package core

import (
	"context"
)

// Row is the minimal scanning surface shared by *sql.Row and *sql.Rows.
type Row interface {
	Scan(dest ...interface{}) error
}

// Rows iterates over the result of a query.
type Rows interface {
	Row
	Next() bool
	Close() error
	Err() error
}

// Result summarizes an executed statement.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// Querier is implemented by both Database and Transaction.
type Querier interface {
	// Query executes a SELECT statement and returns the resulting rows.
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)

	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)
}

// Transaction is a unit of work started by Database.BeginTx.
// Exactly one of Commit or Rollback must end it.
type Transaction interface {
	Querier
	Commit() error
	Rollback() error
}

// Database is the storage handle the mapper store is constructed with.
// Connection acquisition and pooling live behind it.
type Database interface {
	Querier

	// BeginTx starts a new transaction using the driver's default isolation level.
	BeginTx(ctx context.Context) (Transaction, error)

	// Dialect reports the SQL flavour spoken by the connection.
	Dialect() Dialect

	// Close releases the underlying connection pool.
	Close() error
}
