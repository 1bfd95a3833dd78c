package service

import (
	"context"
	"errors"
	"testing"

	achievementrepo "sqlquest/internal/achievement/repository"
	"sqlquest/internal/common/db"
	"sqlquest/internal/sandbox"
	taskrepo "sqlquest/internal/task/repository"
	userrepo "sqlquest/internal/user/repository"
	pkgerrors "sqlquest/pkg/errors"
)

type fakeTx struct{}

func (fakeTx) Query(ctx context.Context, query string, args ...interface{}) (db.Rows, error) {
	return nil, errors.New("not implemented")
}
func (fakeTx) QueryRow(ctx context.Context, query string, args ...interface{}) db.Row { return nil }
func (fakeTx) Exec(ctx context.Context, query string, args ...interface{}) (db.Result, error) {
	return nil, errors.New("not implemented")
}
func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

type fakeDatabase struct {
	fakeTx
	transactions int
}

func (f *fakeDatabase) Transaction(ctx context.Context, fn func(tx db.Transaction) error) error {
	f.transactions++
	return fn(fakeTx{})
}
func (f *fakeDatabase) BeginTx(ctx context.Context, opts *db.TxOptions) (db.Transaction, error) {
	return fakeTx{}, nil
}
func (f *fakeDatabase) Ping(ctx context.Context) error { return nil }
func (f *fakeDatabase) Close() error                   { return nil }

type fakeExecutor struct {
	result *sandbox.Result
	err    error
}

func (f *fakeExecutor) Execute(ctx context.Context, query string) (*sandbox.Result, error) {
	return f.result, f.err
}

type fakeTaskRepo struct {
	task         *taskrepo.Task
	solved       map[int64]bool
	cluesCleared int
}

func (f *fakeTaskRepo) GetByMissionAndLocalID(ctx context.Context, tx db.Transaction, missionID, localID int) (*taskrepo.Task, error) {
	if f.task == nil || f.task.MissionID != missionID || f.task.LocalID != localID {
		return nil, taskrepo.ErrTaskNotFound
	}
	return f.task, nil
}
func (f *fakeTaskRepo) Counts(ctx context.Context) (*taskrepo.TaskCounts, error) {
	return &taskrepo.TaskCounts{}, nil
}
func (f *fakeTaskRepo) ListGroupedWithStatus(ctx context.Context, userID int64) (map[int][]taskrepo.TaskListItem, error) {
	return nil, nil
}
func (f *fakeTaskRepo) SolvedExists(ctx context.Context, tx db.Transaction, userID, taskGlobalID int64) (bool, error) {
	return f.solved[taskGlobalID], nil
}
func (f *fakeTaskRepo) CreateSolved(ctx context.Context, tx db.Transaction, userID, taskGlobalID int64) (bool, error) {
	if f.solved[taskGlobalID] {
		return false, nil
	}
	f.solved[taskGlobalID] = true
	return true, nil
}
func (f *fakeTaskRepo) ClearClues(ctx context.Context, tx db.Transaction, userID, taskGlobalID int64) error {
	f.cluesCleared++
	return nil
}
func (f *fakeTaskRepo) CreateClue(ctx context.Context, tx db.Transaction, userID, taskGlobalID int64, clueType int) (bool, error) {
	return true, nil
}

type fakeUserRepo struct {
	score        int
	progress     userrepo.Progress
	scoreDeltas  []int
	incrementsBy []int
}

func (f *fakeUserRepo) Create(ctx context.Context, tx db.Transaction, user *userrepo.User) (int64, error) {
	return 1, nil
}
func (f *fakeUserRepo) CreateProgress(ctx context.Context, tx db.Transaction, userID int64) error {
	return nil
}
func (f *fakeUserRepo) GetByID(ctx context.Context, tx db.Transaction, id int64) (*userrepo.User, error) {
	return nil, userrepo.ErrUserNotFound
}
func (f *fakeUserRepo) GetByLogin(ctx context.Context, tx db.Transaction, login string) (*userrepo.User, error) {
	return nil, userrepo.ErrUserNotFound
}
func (f *fakeUserRepo) GetProgress(ctx context.Context, tx db.Transaction, userID int64) (*userrepo.Progress, error) {
	progress := f.progress
	return &progress, nil
}
func (f *fakeUserRepo) AddScore(ctx context.Context, tx db.Transaction, userID int64, delta int) error {
	f.score += delta
	f.scoreDeltas = append(f.scoreDeltas, delta)
	return nil
}
func (f *fakeUserRepo) GetScore(ctx context.Context, tx db.Transaction, userID int64) (int, error) {
	return f.score, nil
}
func (f *fakeUserRepo) IncrementSolvedCounter(ctx context.Context, tx db.Transaction, userID int64, missionID int) error {
	f.incrementsBy = append(f.incrementsBy, missionID)
	return nil
}
func (f *fakeUserRepo) TopByScore(ctx context.Context, limit int) ([]userrepo.RatingEntry, error) {
	return nil, nil
}
func (f *fakeUserRepo) Place(ctx context.Context, userID int64) (*userrepo.RatingEntry, error) {
	return nil, userrepo.ErrUserNotFound
}

type fakeAchievementService struct {
	evaluations int
	earned      []achievementrepo.EarnedAchievement
}

func (f *fakeAchievementService) Evaluate(ctx context.Context, tx db.Transaction, userID int64, taskTags []string) ([]achievementrepo.EarnedAchievement, error) {
	f.evaluations++
	return f.earned, nil
}
func (f *fakeAchievementService) ListAll(ctx context.Context, userID int64) (map[string][]achievementrepo.AchievementStatus, error) {
	return nil, nil
}
func (f *fakeAchievementService) ListEarned(ctx context.Context, userID int64) (map[string][]achievementrepo.AchievementStatus, error) {
	return nil, nil
}

func matchingResult() *sandbox.Result {
	return &sandbox.Result{
		Columns:  []string{"id", "title"},
		Rows:     [][]interface{}{{float64(1), "sword"}},
		RowCount: 1,
	}
}

type testDeps struct {
	database     *fakeDatabase
	executor     *fakeExecutor
	tasks        *fakeTaskRepo
	users        *fakeUserRepo
	achievements *fakeAchievementService
	service      SubmissionService
}

func newTestDeps(executorResult *sandbox.Result) *testDeps {
	deps := &testDeps{
		database: &fakeDatabase{},
		executor: &fakeExecutor{result: executorResult},
		tasks: &fakeTaskRepo{
			solved: make(map[int64]bool),
			task: &taskrepo.Task{
				GlobalID:       7,
				LocalID:        1,
				MissionID:      taskrepo.MissionEasy,
				Title:          "First steps",
				Tags:           []string{"select"},
				ExpectedResult: matchingResult(),
			},
		},
		users:        &fakeUserRepo{score: 50},
		achievements: &fakeAchievementService{},
	}
	deps.service = NewSubmissionService(deps.database, deps.executor, deps.tasks, deps.users, deps.achievements)
	return deps
}

func TestCheckFirstSolveAwardsPoints(t *testing.T) {
	deps := newTestDeps(matchingResult())

	result, err := deps.service.Check(context.Background(), 1, taskrepo.MissionEasy, 1, "select id, title from goods")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsCorrect || result.WasSolvedBefore {
		t.Fatalf("expected first correct solve, got %+v", result)
	}
	if result.PointsEarned != 100 {
		t.Fatalf("awarded %d points, want 100", result.PointsEarned)
	}
	if result.CurrentScore != 150 {
		t.Fatalf("total score %d, want 150", result.CurrentScore)
	}
	if len(deps.users.incrementsBy) != 1 || deps.users.incrementsBy[0] != taskrepo.MissionEasy {
		t.Fatalf("expected one easy counter increment, got %v", deps.users.incrementsBy)
	}
	if deps.tasks.cluesCleared != 1 {
		t.Fatalf("expected purchased clues cleared once, got %d", deps.tasks.cluesCleared)
	}
	if deps.achievements.evaluations != 1 {
		t.Fatalf("expected one achievement evaluation, got %d", deps.achievements.evaluations)
	}
	if deps.database.transactions != 1 {
		t.Fatalf("settlement must run in a single transaction, got %d", deps.database.transactions)
	}
}

func TestCheckRepeatSolveAwardsNothing(t *testing.T) {
	deps := newTestDeps(matchingResult())
	deps.tasks.solved[7] = true

	result, err := deps.service.Check(context.Background(), 1, taskrepo.MissionEasy, 1, "select id, title from goods")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsCorrect || !result.WasSolvedBefore {
		t.Fatalf("expected repeat solve, got %+v", result)
	}
	if result.PointsEarned != 0 {
		t.Fatalf("repeat solve awarded %d points", result.PointsEarned)
	}
	if len(deps.users.scoreDeltas) != 0 {
		t.Fatalf("repeat solve must not touch the score, got %v", deps.users.scoreDeltas)
	}
	if len(deps.users.incrementsBy) != 0 {
		t.Fatalf("repeat solve must not touch counters, got %v", deps.users.incrementsBy)
	}
	if deps.achievements.evaluations != 1 {
		t.Fatalf("achievements evaluate on every correct submission, got %d", deps.achievements.evaluations)
	}
}

func TestCheckWrongAnswerAppliesPenalty(t *testing.T) {
	deps := newTestDeps(&sandbox.Result{
		Columns:  []string{"id", "title"},
		Rows:     [][]interface{}{{int64(2), "shield"}},
		RowCount: 1,
	})

	result, err := deps.service.Check(context.Background(), 1, taskrepo.MissionEasy, 1, "select id, title from goods where id = 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsCorrect {
		t.Fatalf("expected wrong answer")
	}
	if result.PointsPenalty != 10 {
		t.Fatalf("penalty %d, want 10", result.PointsPenalty)
	}
	if result.CurrentScore != 40 {
		t.Fatalf("total score %d, want 40", result.CurrentScore)
	}
}

func TestCheckWrongAnswerOnSolvedTaskIsFree(t *testing.T) {
	deps := newTestDeps(&sandbox.Result{
		Columns:  []string{"id"},
		Rows:     [][]interface{}{},
		RowCount: 0,
	})
	deps.tasks.solved[7] = true

	result, err := deps.service.Check(context.Background(), 1, taskrepo.MissionEasy, 1, "select id from goods where false")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsCorrect || !result.WasSolvedBefore {
		t.Fatalf("expected free wrong answer on solved task, got %+v", result)
	}
	if result.PointsPenalty != 0 || len(deps.users.scoreDeltas) != 0 {
		t.Fatalf("no penalty expected, got %+v deltas %v", result, deps.users.scoreDeltas)
	}
}

func TestCheckInvalidMission(t *testing.T) {
	deps := newTestDeps(matchingResult())
	deps.tasks.task.MissionID = 9

	_, err := deps.service.Check(context.Background(), 1, 9, 1, "select 1")
	if !pkgerrors.Is(err, pkgerrors.MissionInvalid) {
		t.Fatalf("expected mission invalid, got %v", err)
	}
	if len(deps.users.scoreDeltas) != 0 {
		t.Fatalf("invalid tier must not touch the score")
	}
}

func TestCheckUnknownTask(t *testing.T) {
	deps := newTestDeps(matchingResult())
	_, err := deps.service.Check(context.Background(), 1, taskrepo.MissionEasy, 99, "select 1")
	if !pkgerrors.Is(err, pkgerrors.TaskNotFound) {
		t.Fatalf("expected task not found, got %v", err)
	}
}

func TestCheckMissingExpectedResult(t *testing.T) {
	deps := newTestDeps(matchingResult())
	deps.tasks.task.ExpectedResult = nil
	_, err := deps.service.Check(context.Background(), 1, taskrepo.MissionEasy, 1, "select 1")
	if !pkgerrors.Is(err, pkgerrors.ExpectedResultMissing) {
		t.Fatalf("expected missing expected result, got %v", err)
	}
}

func TestCheckExecutorErrorsPropagate(t *testing.T) {
	deps := newTestDeps(nil)
	deps.executor.err = pkgerrors.New(pkgerrors.QueryRejected)

	_, err := deps.service.Check(context.Background(), 1, taskrepo.MissionEasy, 1, "drop table goods")
	if !pkgerrors.Is(err, pkgerrors.QueryRejected) {
		t.Fatalf("expected query rejection, got %v", err)
	}
	if len(deps.users.scoreDeltas) != 0 {
		t.Fatalf("rejected query must not touch the score")
	}
}

func TestCheckRejectionWinsOverMissingExpectedResult(t *testing.T) {
	deps := newTestDeps(nil)
	deps.executor.err = pkgerrors.New(pkgerrors.QueryRejected)
	deps.tasks.task.ExpectedResult = nil

	_, err := deps.service.Check(context.Background(), 1, taskrepo.MissionEasy, 1, "drop table goods")
	if !pkgerrors.Is(err, pkgerrors.QueryRejected) {
		t.Fatalf("expected query rejection to win, got %v", err)
	}
}

func TestPenaltyByMission(t *testing.T) {
	deps := newTestDeps(&sandbox.Result{Columns: []string{"id"}, Rows: [][]interface{}{}, RowCount: 0})
	deps.tasks.task.MissionID = taskrepo.MissionHard
	deps.users.score = 500

	result, err := deps.service.Check(context.Background(), 1, taskrepo.MissionHard, 1, "select id from goods where false")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PointsPenalty != 50 {
		t.Fatalf("hard mission penalty %d, want 50", result.PointsPenalty)
	}
}
