package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"sqlquest/internal/common/db"
	"sqlquest/internal/sandbox"

	"github.com/lib/pq"
)

var (
	ErrTaskNotFound = errors.New("task not found")
)

// Mission tiers. The tier doubles as the index into the points table.
const (
	MissionEasy = iota
	MissionMedium
	MissionHard
	missionCount
)

// Task is an immutable catalog entry.
type Task struct {
	GlobalID       int64
	LocalID        int
	MissionID      int
	Title          string
	Description    string
	Clue           string
	CorrectQuery   *string
	ExpectedResult *sandbox.Result
	Tags           []string
}

// TaskCounts holds per-tier task totals.
type TaskCounts struct {
	EasyTotal   int `json:"easy_tasks_total"`
	MediumTotal int `json:"medium_tasks_total"`
	HardTotal   int `json:"hard_tasks_total"`
}

// TaskListItem is one entry of the per-mission task listing.
type TaskListItem struct {
	LocalID  int    `json:"task_id"`
	GlobalID int64  `json:"task_global_id"`
	Title    string `json:"title"`
	IsSolved bool   `json:"is_solved"`
}

// TaskRepository defines catalog, solved-record and clue persistence.
type TaskRepository interface {
	GetByMissionAndLocalID(ctx context.Context, tx db.Transaction, missionID, localID int) (*Task, error)
	Counts(ctx context.Context) (*TaskCounts, error)
	ListGroupedWithStatus(ctx context.Context, userID int64) (map[int][]TaskListItem, error)

	// SolvedExists reports whether the user has ever been credited for the task.
	SolvedExists(ctx context.Context, tx db.Transaction, userID, taskGlobalID int64) (bool, error)

	// CreateSolved records a first-time solve. It returns false without error
	// when a concurrent submission created the record first: the primary key
	// on (user_id, task_global_id) is the idempotency guard.
	CreateSolved(ctx context.Context, tx db.Transaction, userID, taskGlobalID int64) (bool, error)

	// ClearClues removes every purchased clue for the task once it is solved.
	ClearClues(ctx context.Context, tx db.Transaction, userID, taskGlobalID int64) error

	// CreateClue records a clue purchase; returns false if already purchased.
	CreateClue(ctx context.Context, tx db.Transaction, userID, taskGlobalID int64, clueType int) (bool, error)
}

// PostgresTaskRepository implements TaskRepository on the main store.
type PostgresTaskRepository struct {
	dbProvider db.Provider
}

// NewTaskRepository creates a task repository.
func NewTaskRepository(provider db.Provider) TaskRepository {
	return &PostgresTaskRepository{dbProvider: provider}
}

const taskColumns = "task_global_id, task_id, mission_id, title, description, clue, correct_query, expected_result, tags"

func (r *PostgresTaskRepository) GetByMissionAndLocalID(ctx context.Context, tx db.Transaction, missionID, localID int) (*Task, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	query := "SELECT " + taskColumns + " FROM tasks WHERE mission_id = $1 AND task_id = $2"
	row := querier.QueryRow(ctx, query, missionID, localID)

	task := &Task{}
	var correctQuery sql.NullString
	var expectedRaw []byte
	if err := row.Scan(
		&task.GlobalID,
		&task.LocalID,
		&task.MissionID,
		&task.Title,
		&task.Description,
		&task.Clue,
		&correctQuery,
		&expectedRaw,
		pq.Array(&task.Tags),
	); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if correctQuery.Valid {
		task.CorrectQuery = &correctQuery.String
	}
	if len(expectedRaw) > 0 {
		expected := &sandbox.Result{}
		if err := json.Unmarshal(expectedRaw, expected); err != nil {
			return nil, err
		}
		task.ExpectedResult = expected
	}
	return task, nil
}

func (r *PostgresTaskRepository) Counts(ctx context.Context) (*TaskCounts, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, nil)
	if err != nil {
		return nil, err
	}
	rows, err := querier.Query(ctx, "SELECT mission_id, COUNT(task_id) FROM tasks GROUP BY mission_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perMission := make([]int, missionCount)
	for rows.Next() {
		var missionID, count int
		if err := rows.Scan(&missionID, &count); err != nil {
			return nil, err
		}
		if missionID >= 0 && missionID < missionCount {
			perMission[missionID] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &TaskCounts{
		EasyTotal:   perMission[MissionEasy],
		MediumTotal: perMission[MissionMedium],
		HardTotal:   perMission[MissionHard],
	}, nil
}

func (r *PostgresTaskRepository) ListGroupedWithStatus(ctx context.Context, userID int64) (map[int][]TaskListItem, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, nil)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT t.mission_id, t.task_id, t.task_global_id, t.title,
		       s.task_global_id IS NOT NULL AS is_solved
		FROM tasks t
		LEFT JOIN tasks_solved s
		  ON s.task_global_id = t.task_global_id AND s.user_id = $1
		ORDER BY t.mission_id, t.task_id
	`
	rows, err := querier.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grouped := make(map[int][]TaskListItem)
	for rows.Next() {
		var missionID int
		item := TaskListItem{}
		if err := rows.Scan(&missionID, &item.LocalID, &item.GlobalID, &item.Title, &item.IsSolved); err != nil {
			return nil, err
		}
		grouped[missionID] = append(grouped[missionID], item)
	}
	return grouped, rows.Err()
}

func (r *PostgresTaskRepository) SolvedExists(ctx context.Context, tx db.Transaction, userID, taskGlobalID int64) (bool, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return false, err
	}
	var exists bool
	query := "SELECT EXISTS (SELECT 1 FROM tasks_solved WHERE user_id = $1 AND task_global_id = $2)"
	if err := querier.QueryRow(ctx, query, userID, taskGlobalID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresTaskRepository) CreateSolved(ctx context.Context, tx db.Transaction, userID, taskGlobalID int64) (bool, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return false, err
	}
	// ON CONFLICT DO NOTHING keeps the transaction usable on the repeat
	// path; a raw unique violation would abort it.
	query := `
		INSERT INTO tasks_solved (user_id, task_global_id, solved_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, task_global_id) DO NOTHING
	`
	res, err := querier.Exec(ctx, query, userID, taskGlobalID, time.Now().UTC())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *PostgresTaskRepository) ClearClues(ctx context.Context, tx db.Transaction, userID, taskGlobalID int64) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	_, err = querier.Exec(ctx, "DELETE FROM users_clues WHERE user_id = $1 AND task_global_id = $2", userID, taskGlobalID)
	return err
}

func (r *PostgresTaskRepository) CreateClue(ctx context.Context, tx db.Transaction, userID, taskGlobalID int64, clueType int) (bool, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return false, err
	}
	query := `
		INSERT INTO users_clues (user_id, task_global_id, clue_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, task_global_id, clue_type) DO NOTHING
	`
	res, err := querier.Exec(ctx, query, userID, taskGlobalID, clueType)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
