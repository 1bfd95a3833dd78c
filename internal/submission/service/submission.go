package service

import (
	"context"
	"errors"
	"fmt"

	achievementrepo "sqlquest/internal/achievement/repository"
	achievementsvc "sqlquest/internal/achievement/service"
	"sqlquest/internal/common/db"
	"sqlquest/internal/sandbox"
	taskrepo "sqlquest/internal/task/repository"
	tasksvc "sqlquest/internal/task/service"
	userrepo "sqlquest/internal/user/repository"
	pkgerrors "sqlquest/pkg/errors"
	"sqlquest/pkg/utils/logger"

	"go.uber.org/zap"
)

// CheckResult is the outcome of one submission check.
type CheckResult struct {
	WasSolvedBefore     bool                                `json:"wasSolvedBefore"`
	PointsEarned        int                                 `json:"pointsEarned"`
	PointsPenalty       int                                 `json:"pointsPenalty"`
	IsCorrect           bool                                `json:"isCorrect"`
	AwardedAchievements []achievementrepo.EarnedAchievement `json:"awardedAchievements"`
	CurrentScore        int                                 `json:"currentScore"`
	Result              *sandbox.Result                     `json:"result,omitempty"`
}

// QueryExecutor runs a candidate query in the sandbox.
type QueryExecutor interface {
	Execute(ctx context.Context, query string) (*sandbox.Result, error)
}

// SubmissionService runs the submission pipeline: validate, execute in the
// sandbox, compare against the expected result and settle points and
// achievements.
type SubmissionService interface {
	Check(ctx context.Context, userID int64, missionID, localID int, query string) (*CheckResult, error)
}

type submissionService struct {
	database        db.Database
	executor        QueryExecutor
	taskRepo        taskrepo.TaskRepository
	userRepo        userrepo.UserRepository
	achievementsSvc achievementsvc.AchievementService
}

// NewSubmissionService creates a submission service.
func NewSubmissionService(
	database db.Database,
	executor QueryExecutor,
	taskRepo taskrepo.TaskRepository,
	userRepo userrepo.UserRepository,
	achievementsSvc achievementsvc.AchievementService,
) SubmissionService {
	return &submissionService{
		database:        database,
		executor:        executor,
		taskRepo:        taskRepo,
		userRepo:        userRepo,
		achievementsSvc: achievementsSvc,
	}
}

// Penalty is the score deduction for a wrong answer on an unsolved task.
func Penalty(points int) int {
	return points / 10
}

// Check resolves the task, executes the candidate in the sandbox, checks
// the stored expected result, then compares and settles. Validator and
// executor failures win over a missing expected result; the mission tier
// is validated last, at settlement.
func (s *submissionService) Check(ctx context.Context, userID int64, missionID, localID int, query string) (*CheckResult, error) {
	task, err := s.taskRepo.GetByMissionAndLocalID(ctx, nil, missionID, localID)
	if err != nil {
		if errors.Is(err, taskrepo.ErrTaskNotFound) {
			return nil, pkgerrors.New(pkgerrors.TaskNotFound)
		}
		return nil, pkgerrors.Wrap(fmt.Errorf("failed to load task: %w", err), pkgerrors.DatabaseError)
	}

	userResult, err := s.executor.Execute(ctx, query)
	if err != nil {
		return nil, err
	}

	if task.ExpectedResult == nil {
		return nil, pkgerrors.New(pkgerrors.ExpectedResultMissing)
	}

	points, err := tasksvc.PointsForMission(missionID)
	if err != nil {
		return nil, err
	}

	if !sandbox.Equal(userResult, task.ExpectedResult) {
		return s.settleWrong(ctx, userID, task, points, userResult)
	}
	return s.settleCorrect(ctx, userID, task, points, userResult)
}

// settleCorrect credits the solve inside one transaction. The solved record
// insert runs first: its primary key makes the whole settlement idempotent,
// so a repeat or concurrent solve awards nothing and touches no counters.
// Achievements are evaluated on every correct submission.
func (s *submissionService) settleCorrect(ctx context.Context, userID int64, task *taskrepo.Task, points int, userResult *sandbox.Result) (*CheckResult, error) {
	result := &CheckResult{IsCorrect: true, Result: userResult}

	err := s.database.Transaction(ctx, func(tx db.Transaction) error {
		firstSolve, err := s.taskRepo.CreateSolved(ctx, tx, userID, task.GlobalID)
		if err != nil {
			return pkgerrors.Wrap(fmt.Errorf("failed to record solve: %w", err), pkgerrors.DatabaseError)
		}
		result.WasSolvedBefore = !firstSolve

		if firstSolve {
			result.PointsEarned = points
			if err := s.userRepo.AddScore(ctx, tx, userID, points); err != nil {
				return pkgerrors.Wrap(fmt.Errorf("failed to award points: %w", err), pkgerrors.DatabaseError)
			}
			if err := s.userRepo.IncrementSolvedCounter(ctx, tx, userID, task.MissionID); err != nil {
				return pkgerrors.Wrap(fmt.Errorf("failed to update progress: %w", err), pkgerrors.DatabaseError)
			}
			if err := s.taskRepo.ClearClues(ctx, tx, userID, task.GlobalID); err != nil {
				return pkgerrors.Wrap(fmt.Errorf("failed to clear clues: %w", err), pkgerrors.DatabaseError)
			}
		}

		earned, err := s.achievementsSvc.Evaluate(ctx, tx, userID, task.Tags)
		if err != nil {
			return err
		}
		result.AwardedAchievements = earned

		score, err := s.userRepo.GetScore(ctx, tx, userID)
		if err != nil {
			return pkgerrors.Wrap(fmt.Errorf("failed to load score: %w", err), pkgerrors.DatabaseError)
		}
		result.CurrentScore = score
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "submission correct",
		zap.Int64("user_id", userID),
		zap.Int64("task_global_id", task.GlobalID),
		zap.Bool("was_solved_before", result.WasSolvedBefore),
		zap.Int("points_earned", result.PointsEarned))
	return result, nil
}

// settleWrong deducts the penalty, but only while the task is unsolved.
// A wrong answer on an already solved task costs nothing.
func (s *submissionService) settleWrong(ctx context.Context, userID int64, task *taskrepo.Task, points int, userResult *sandbox.Result) (*CheckResult, error) {
	result := &CheckResult{IsCorrect: false, Result: userResult}

	err := s.database.Transaction(ctx, func(tx db.Transaction) error {
		solved, err := s.taskRepo.SolvedExists(ctx, tx, userID, task.GlobalID)
		if err != nil {
			return pkgerrors.Wrap(fmt.Errorf("failed to check solved status: %w", err), pkgerrors.DatabaseError)
		}
		result.WasSolvedBefore = solved

		if !solved {
			penalty := Penalty(points)
			result.PointsPenalty = penalty
			if err := s.userRepo.AddScore(ctx, tx, userID, -penalty); err != nil {
				return pkgerrors.Wrap(fmt.Errorf("failed to apply penalty: %w", err), pkgerrors.DatabaseError)
			}
		}

		score, err := s.userRepo.GetScore(ctx, tx, userID)
		if err != nil {
			return pkgerrors.Wrap(fmt.Errorf("failed to load score: %w", err), pkgerrors.DatabaseError)
		}
		result.CurrentScore = score
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "submission wrong",
		zap.Int64("user_id", userID),
		zap.Int64("task_global_id", task.GlobalID),
		zap.Int("points_penalty", result.PointsPenalty))
	return result, nil
}
