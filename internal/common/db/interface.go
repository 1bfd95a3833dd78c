package db

import (
	"context"
	"database/sql"
)

// Querier abstracts database operations shared by the database and transactions.
type Querier interface {
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) Row
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)
}

// Database is the unified interface over a relational store.
// It allows swapping drivers without touching business logic.
type Database interface {
	Querier

	// Transaction executes fn within a transaction, rolling back on error.
	Transaction(ctx context.Context, fn func(tx Transaction) error) error

	// BeginTx starts a new transaction with the given options.
	BeginTx(ctx context.Context, opts *TxOptions) (Transaction, error)

	// Ping verifies the connection to the database is still alive.
	Ping(ctx context.Context) error

	// Close closes the database connection pool.
	Close() error
}

// Transaction represents an in-flight database transaction.
type Transaction interface {
	Querier

	Commit() error
	Rollback() error
}

// Rows is the result of a query.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Close() error
	Err() error
	Columns() ([]string, error)
}

// Row is the result of a single-row query.
type Row interface {
	Scan(dest ...interface{}) error
}

// Result summarizes an executed statement.
type Result interface {
	RowsAffected() (int64, error)
}

// IsolationLevel mirrors sql.IsolationLevel for transaction options.
type IsolationLevel int

const (
	LevelDefault IsolationLevel = iota
	LevelReadCommitted
	LevelRepeatableRead
	LevelSerializable
)

// TxOptions holds transaction options.
type TxOptions struct {
	Isolation IsolationLevel
	ReadOnly  bool
}

// ConvertTxOptions maps TxOptions to database/sql options.
func ConvertTxOptions(opts *TxOptions) *sql.TxOptions {
	if opts == nil {
		return nil
	}
	sqlOpts := &sql.TxOptions{ReadOnly: opts.ReadOnly}
	switch opts.Isolation {
	case LevelReadCommitted:
		sqlOpts.Isolation = sql.LevelReadCommitted
	case LevelRepeatableRead:
		sqlOpts.Isolation = sql.LevelRepeatableRead
	case LevelSerializable:
		sqlOpts.Isolation = sql.LevelSerializable
	default:
		sqlOpts.Isolation = sql.LevelDefault
	}
	return sqlOpts
}
