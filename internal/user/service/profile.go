package service

import (
	"context"
	"errors"
	"fmt"

	"sqlquest/internal/user/repository"
	pkgerrors "sqlquest/pkg/errors"
)

// ProfileInfo is the authenticated user's own account view.
type ProfileInfo struct {
	UserID     int64  `json:"user_id"`
	Login      string `json:"login"`
	Email      string `json:"email"`
	TotalScore int    `json:"total_score"`
}

// TasksProgress is the per-difficulty solved counters plus total score.
type TasksProgress struct {
	EasyTasksSolved   int `json:"easy_tasks_solved"`
	MediumTasksSolved int `json:"medium_tasks_solved"`
	HardTasksSolved   int `json:"hard_tasks_solved"`
	TotalScore        int `json:"total_score"`
}

// ProfileService serves the authenticated user's own data.
type ProfileService interface {
	GetProfile(ctx context.Context, userID int64) (*ProfileInfo, error)
	GetTasksProgress(ctx context.Context, userID int64) (*TasksProgress, error)
}

type profileService struct {
	userRepo repository.UserRepository
}

// NewProfileService creates a profile service.
func NewProfileService(userRepo repository.UserRepository) ProfileService {
	return &profileService{userRepo: userRepo}
}

func (s *profileService) GetProfile(ctx context.Context, userID int64) (*ProfileInfo, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, pkgerrors.New(pkgerrors.UserNotFound)
		}
		return nil, pkgerrors.Wrap(fmt.Errorf("failed to load user: %w", err), pkgerrors.DatabaseError)
	}
	return &ProfileInfo{
		UserID:     user.ID,
		Login:      user.Login,
		Email:      user.Email,
		TotalScore: user.TotalScore,
	}, nil
}

func (s *profileService) GetTasksProgress(ctx context.Context, userID int64) (*TasksProgress, error) {
	progress, err := s.userRepo.GetProgress(ctx, nil, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(fmt.Errorf("failed to load progress: %w", err), pkgerrors.DatabaseError)
	}
	score, err := s.userRepo.GetScore(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, pkgerrors.New(pkgerrors.UserNotFound)
		}
		return nil, pkgerrors.Wrap(fmt.Errorf("failed to load score: %w", err), pkgerrors.DatabaseError)
	}
	return &TasksProgress{
		EasyTasksSolved:   progress.EasySolved,
		MediumTasksSolved: progress.MediumSolved,
		HardTasksSolved:   progress.HardSolved,
		TotalScore:        score,
	}, nil
}
