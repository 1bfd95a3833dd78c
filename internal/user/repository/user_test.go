package repository

import (
	"context"
	"errors"
	"testing"

	"sqlquest/internal/common/db"
)

type fakeResult struct {
	affected int64
}

func (r fakeResult) RowsAffected() (int64, error) {
	return r.affected, nil
}

type countingTx struct {
	execs    int
	affected int64
}

func (t *countingTx) Query(ctx context.Context, query string, args ...interface{}) (db.Rows, error) {
	return nil, nil
}

func (t *countingTx) QueryRow(ctx context.Context, query string, args ...interface{}) db.Row {
	return nil
}

func (t *countingTx) Exec(ctx context.Context, query string, args ...interface{}) (db.Result, error) {
	t.execs++
	return fakeResult{affected: t.affected}, nil
}

func (t *countingTx) Commit() error   { return nil }
func (t *countingTx) Rollback() error { return nil }

func TestIncrementSolvedCounter(t *testing.T) {
	tx := &countingTx{affected: 1}
	repo := NewUserRepository(nil)

	if err := repo.IncrementSolvedCounter(context.Background(), tx, 1, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.execs != 1 {
		t.Fatalf("expected one statement, got %d", tx.execs)
	}
}

// A missing progress row must surface as an error, not vanish as a
// zero-row update: every solved record insert pairs with exactly one
// counter increment.
func TestIncrementSolvedCounterMissingProgressRow(t *testing.T) {
	tx := &countingTx{affected: 0}
	repo := NewUserRepository(nil)

	err := repo.IncrementSolvedCounter(context.Background(), tx, 1, 0)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestIncrementSolvedCounterRejectsUnknownTier(t *testing.T) {
	tx := &countingTx{affected: 1}
	repo := NewUserRepository(nil)

	if err := repo.IncrementSolvedCounter(context.Background(), tx, 1, 9); err == nil {
		t.Fatalf("expected error for unknown tier")
	}
	if tx.execs != 0 {
		t.Fatalf("unknown tier must not execute, got %d statements", tx.execs)
	}
}
