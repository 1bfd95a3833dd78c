package sandbox

import (
	"errors"
	"testing"
	"time"

	pkgerrors "sqlquest/pkg/errors"

	"github.com/lib/pq"
)

func TestNormalizeValue(t *testing.T) {
	moment := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	cases := []struct {
		name   string
		value  interface{}
		dbType string
		want   interface{}
	}{
		{"date", moment, "DATE", "2026-03-14"},
		{"time", moment, "TIME", "09:26:53"},
		{"timetz", moment, "TIMETZ", "09:26:53"},
		{"timestamp", moment, "TIMESTAMP", "2026-03-14T09:26:53Z"},
		{"timestamptz", moment, "TIMESTAMPTZ", "2026-03-14T09:26:53Z"},
		{"bytes to string", []byte("hello"), "TEXT", "hello"},
		{"int passthrough", int64(5), "INT8", int64(5)},
		{"float passthrough", float64(1.5), "FLOAT8", float64(1.5)},
		{"nil passthrough", nil, "TEXT", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeValue(tc.value, tc.dbType); got != tc.want {
				t.Fatalf("normalizeValue(%v, %s) = %v, want %v", tc.value, tc.dbType, got, tc.want)
			}
		})
	}
}

func TestClassifyExecutionError(t *testing.T) {
	canceled := &pq.Error{Code: "57014", Message: "canceling statement due to statement timeout"}
	if err := classifyExecutionError(canceled); !pkgerrors.Is(err, pkgerrors.QueryTimeout) {
		t.Fatalf("statement cancellation must map to timeout, got code %d", pkgerrors.GetCode(err))
	}

	syntax := &pq.Error{Code: "42601", Message: `syntax error at or near "selectt"`}
	err := classifyExecutionError(syntax)
	if !pkgerrors.Is(err, pkgerrors.QueryExecutionFailed) {
		t.Fatalf("engine fault must map to execution failure, got code %d", pkgerrors.GetCode(err))
	}
	if msg := err.Error(); msg == "" {
		t.Fatalf("execution failure must carry the engine message")
	}

	plain := errors.New("driver: bad connection")
	if err := classifyExecutionError(plain); !pkgerrors.Is(err, pkgerrors.QueryExecutionFailed) {
		t.Fatalf("non-engine error must map to execution failure")
	}
}

func TestNewExecutorRequiresGameDatabase(t *testing.T) {
	if _, err := NewExecutor(nil, ExecutorConfig{}); err == nil {
		t.Fatalf("expected error for missing game database")
	}
}
