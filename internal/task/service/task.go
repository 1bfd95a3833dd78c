package service

import (
	"context"
	"errors"
	"fmt"

	"sqlquest/internal/common/db"
	"sqlquest/internal/sandbox"
	"sqlquest/internal/task/repository"
	userrepo "sqlquest/internal/user/repository"
	pkgerrors "sqlquest/pkg/errors"
	"sqlquest/pkg/utils/logger"

	"go.uber.org/zap"
)

// taskPoints maps the mission tier to the points awarded for a solve.
var taskPoints = [...]int{100, 300, 500}

// PointsForMission returns the award for a mission tier.
func PointsForMission(missionID int) (int, error) {
	if missionID < 0 || missionID >= len(taskPoints) {
		return 0, pkgerrors.New(pkgerrors.MissionInvalid)
	}
	return taskPoints[missionID], nil
}

// CluePrice returns the score cost of a clue for a mission tier.
func CluePrice(missionID int) (int, error) {
	points, err := PointsForMission(missionID)
	if err != nil {
		return 0, err
	}
	return points / 10, nil
}

// CatalogInfo is the aggregate task catalog overview.
type CatalogInfo struct {
	Counts repository.TaskCounts             `json:"counts"`
	Tasks  map[int][]repository.TaskListItem `json:"tasks"`
}

// TaskInfo is the task description shown before solving.
type TaskInfo struct {
	GlobalID    int64    `json:"task_global_id"`
	LocalID     int      `json:"task_id"`
	MissionID   int      `json:"mission_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	IsSolved    bool     `json:"is_solved"`
}

// ClueInfo is a purchased clue with its price.
type ClueInfo struct {
	Clue  string `json:"clue"`
	Price int    `json:"price"`
}

// TaskService serves the task catalog and clue purchases.
type TaskService interface {
	GetCatalogInfo(ctx context.Context, userID int64) (*CatalogInfo, error)
	ListTasks(ctx context.Context, userID int64) (map[int][]repository.TaskListItem, error)
	GetTaskInfo(ctx context.Context, userID int64, missionID, localID int) (*TaskInfo, error)
	GetExpectedResult(ctx context.Context, missionID, localID int) (*sandbox.Result, error)

	// PurchaseClue deducts the clue price from the user's score and records
	// the purchase. A repeat purchase returns the clue without charging again.
	PurchaseClue(ctx context.Context, userID int64, missionID, localID int) (*ClueInfo, error)
}

type taskService struct {
	database db.Database
	taskRepo repository.TaskRepository
	userRepo userrepo.UserRepository
}

// NewTaskService creates a task service.
func NewTaskService(database db.Database, taskRepo repository.TaskRepository, userRepo userrepo.UserRepository) TaskService {
	return &taskService{database: database, taskRepo: taskRepo, userRepo: userRepo}
}

func (s *taskService) GetCatalogInfo(ctx context.Context, userID int64) (*CatalogInfo, error) {
	counts, err := s.taskRepo.Counts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(fmt.Errorf("failed to count tasks: %w", err), pkgerrors.DatabaseError)
	}
	tasks, err := s.taskRepo.ListGroupedWithStatus(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(fmt.Errorf("failed to list tasks: %w", err), pkgerrors.DatabaseError)
	}
	return &CatalogInfo{Counts: *counts, Tasks: tasks}, nil
}

func (s *taskService) ListTasks(ctx context.Context, userID int64) (map[int][]repository.TaskListItem, error) {
	tasks, err := s.taskRepo.ListGroupedWithStatus(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(fmt.Errorf("failed to list tasks: %w", err), pkgerrors.DatabaseError)
	}
	return tasks, nil
}

func (s *taskService) GetTaskInfo(ctx context.Context, userID int64, missionID, localID int) (*TaskInfo, error) {
	task, err := s.getTask(ctx, missionID, localID)
	if err != nil {
		return nil, err
	}
	solved, err := s.taskRepo.SolvedExists(ctx, nil, userID, task.GlobalID)
	if err != nil {
		return nil, pkgerrors.Wrap(fmt.Errorf("failed to check solved status: %w", err), pkgerrors.DatabaseError)
	}
	return &TaskInfo{
		GlobalID:    task.GlobalID,
		LocalID:     task.LocalID,
		MissionID:   task.MissionID,
		Title:       task.Title,
		Description: task.Description,
		Tags:        task.Tags,
		IsSolved:    solved,
	}, nil
}

func (s *taskService) GetExpectedResult(ctx context.Context, missionID, localID int) (*sandbox.Result, error) {
	task, err := s.getTask(ctx, missionID, localID)
	if err != nil {
		return nil, err
	}
	if task.ExpectedResult == nil {
		return nil, pkgerrors.New(pkgerrors.ExpectedResultMissing)
	}
	return task.ExpectedResult, nil
}

func (s *taskService) PurchaseClue(ctx context.Context, userID int64, missionID, localID int) (*ClueInfo, error) {
	task, err := s.getTask(ctx, missionID, localID)
	if err != nil {
		return nil, err
	}
	price, err := CluePrice(missionID)
	if err != nil {
		return nil, err
	}

	err = s.database.Transaction(ctx, func(tx db.Transaction) error {
		created, err := s.taskRepo.CreateClue(ctx, tx, userID, task.GlobalID, 0)
		if err != nil {
			return pkgerrors.Wrap(fmt.Errorf("failed to record clue purchase: %w", err), pkgerrors.DatabaseError)
		}
		if !created {
			// Already purchased; no second charge.
			price = 0
			return nil
		}

		score, err := s.userRepo.GetScore(ctx, tx, userID)
		if err != nil {
			return pkgerrors.Wrap(fmt.Errorf("failed to load score: %w", err), pkgerrors.DatabaseError)
		}
		if score < price {
			return pkgerrors.New(pkgerrors.InsufficientScore)
		}
		if err := s.userRepo.AddScore(ctx, tx, userID, -price); err != nil {
			return pkgerrors.Wrap(fmt.Errorf("failed to charge for clue: %w", err), pkgerrors.DatabaseError)
		}

		logger.Info(ctx, "clue purchased",
			zap.Int64("user_id", userID),
			zap.Int64("task_global_id", task.GlobalID),
			zap.Int("price", price))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ClueInfo{Clue: task.Clue, Price: price}, nil
}

func (s *taskService) getTask(ctx context.Context, missionID, localID int) (*repository.Task, error) {
	if _, err := PointsForMission(missionID); err != nil {
		return nil, err
	}
	task, err := s.taskRepo.GetByMissionAndLocalID(ctx, nil, missionID, localID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, pkgerrors.New(pkgerrors.TaskNotFound)
		}
		return nil, pkgerrors.Wrap(fmt.Errorf("failed to load task: %w", err), pkgerrors.DatabaseError)
	}
	return task, nil
}
