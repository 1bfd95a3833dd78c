package sandbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sqlquest/internal/common/db"
	pkgerrors "sqlquest/pkg/errors"
)

const defaultStatementTimeout = 5 * time.Second

// Result is the normalized outcome of executing a candidate query.
// It is also the stored shape of a task's expected result.
type Result struct {
	Columns  []string        `json:"columns"`
	Rows     [][]interface{} `json:"data"`
	RowCount int             `json:"row_count"`
}

// ExecutorConfig holds sandbox executor settings.
type ExecutorConfig struct {
	// StatementTimeout is enforced server-side on every connection before
	// the candidate query runs. Default: 5 seconds.
	StatementTimeout time.Duration
}

// Executor runs validated, untrusted queries against the isolated game
// database. The game pool is created once at startup, injected here, and
// closed on shutdown by its owner; the executor itself checks a connection
// out of the pool per call and returns it when the call completes.
type Executor struct {
	gameDB           *db.PostgreSQL
	statementTimeout time.Duration
}

// NewExecutor creates an executor bound to the game database pool.
func NewExecutor(gameDB *db.PostgreSQL, cfg ExecutorConfig) (*Executor, error) {
	if gameDB == nil {
		return nil, fmt.Errorf("game database is required")
	}
	timeout := cfg.StatementTimeout
	if timeout <= 0 {
		timeout = defaultStatementTimeout
	}
	return &Executor{
		gameDB:           gameDB,
		statementTimeout: timeout,
	}, nil
}

// Execute validates and runs exactly one statement against the game database.
// Column order and row order follow the engine's execution order; temporal
// values are serialized to ISO-8601 strings. A server-side statement timeout
// bounds execution; its cancellation surfaces as QueryTimeout, any other
// engine fault as QueryExecutionFailed with the engine message.
func (e *Executor) Execute(ctx context.Context, query string) (*Result, error) {
	query = PrepareQuery(query)
	if err := Validate(query); err != nil {
		return nil, err
	}

	conn, err := e.gameDB.GetDB().Conn(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ServiceUnavailable)
	}
	defer conn.Close()

	timeoutStmt := fmt.Sprintf("SET statement_timeout TO %d", e.statementTimeout.Milliseconds())
	if _, err := conn.ExecContext(ctx, timeoutStmt); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ServiceUnavailable)
	}

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyExecutionError(err)
	}
	defer rows.Close()

	return e.collect(rows)
}

func (e *Executor) collect(rows *sql.Rows) (*Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, classifyExecutionError(err)
	}
	if len(columns) == 0 {
		return &Result{Columns: []string{}, Rows: [][]interface{}{}}, nil
	}

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, classifyExecutionError(err)
	}
	dbTypes := make([]string, len(columnTypes))
	for i, ct := range columnTypes {
		dbTypes[i] = ct.DatabaseTypeName()
	}

	data := make([][]interface{}, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, classifyExecutionError(err)
		}
		row := make([]interface{}, len(columns))
		for i, value := range values {
			row[i] = normalizeValue(value, dbTypes[i])
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyExecutionError(err)
	}

	return &Result{
		Columns:  columns,
		Rows:     data,
		RowCount: len(data),
	}, nil
}

// normalizeValue maps driver scan types to the language-neutral forms the
// comparator and the stored expected results use: temporal values become
// ISO-8601 strings, byte slices become strings, everything else passes
// through unchanged.
func normalizeValue(value interface{}, dbType string) interface{} {
	switch v := value.(type) {
	case time.Time:
		switch dbType {
		case "DATE":
			return v.Format("2006-01-02")
		case "TIME", "TIMETZ":
			return v.Format("15:04:05")
		default:
			return v.Format(time.RFC3339)
		}
	case []byte:
		return string(v)
	default:
		return value
	}
}

func classifyExecutionError(err error) error {
	if db.IsQueryCanceled(err) {
		return pkgerrors.New(pkgerrors.QueryTimeout)
	}
	return pkgerrors.Newf(pkgerrors.QueryExecutionFailed, "Query execution failed: %s", db.EngineMessage(err))
}
