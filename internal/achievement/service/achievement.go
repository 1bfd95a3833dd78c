package service

import (
	"context"
	"fmt"

	"sqlquest/internal/achievement/repository"
	"sqlquest/internal/common/db"
	pkgerrors "sqlquest/pkg/errors"
	"sqlquest/pkg/utils/logger"

	"go.uber.org/zap"
)

// AchievementService evaluates counter achievements and serves listings.
type AchievementService interface {
	// Evaluate runs the counter engine for one correct submission inside the
	// caller's transaction. For every threshold achievement matching a task
	// tag it bumps the per-user counter and converts it into an earned
	// achievement once the threshold is reached. Returns newly earned
	// achievements in definition order.
	Evaluate(ctx context.Context, tx db.Transaction, userID int64, taskTags []string) ([]repository.EarnedAchievement, error)

	// ListAll returns every achievement grouped by category with the user's
	// earned flags.
	ListAll(ctx context.Context, userID int64) (map[string][]repository.AchievementStatus, error)

	// ListEarned returns the user's earned achievements grouped by category.
	ListEarned(ctx context.Context, userID int64) (map[string][]repository.AchievementStatus, error)
}

type achievementService struct {
	achievementRepo repository.AchievementRepository
}

// NewAchievementService creates an achievement service.
func NewAchievementService(achievementRepo repository.AchievementRepository) AchievementService {
	return &achievementService{achievementRepo: achievementRepo}
}

func (s *achievementService) Evaluate(ctx context.Context, tx db.Transaction, userID int64, taskTags []string) ([]repository.EarnedAchievement, error) {
	if len(taskTags) == 0 {
		return nil, nil
	}

	candidates, err := s.achievementRepo.ListTriggeredByTags(ctx, tx, taskTags)
	if err != nil {
		return nil, pkgerrors.Wrap(fmt.Errorf("failed to load achievement candidates: %w", err), pkgerrors.DatabaseError)
	}

	var earned []repository.EarnedAchievement
	for _, candidate := range candidates {
		if candidate.RequiredCount == nil {
			continue
		}

		alreadyEarned, err := s.achievementRepo.EarnedExists(ctx, tx, userID, candidate.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(fmt.Errorf("failed to check earned achievement: %w", err), pkgerrors.DatabaseError)
		}
		if alreadyEarned {
			continue
		}

		count, err := s.achievementRepo.IncrementProgress(ctx, tx, userID, candidate.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(fmt.Errorf("failed to increment achievement progress: %w", err), pkgerrors.DatabaseError)
		}
		if count < *candidate.RequiredCount {
			continue
		}

		if err := s.achievementRepo.CreateEarned(ctx, tx, userID, candidate.ID); err != nil {
			return nil, pkgerrors.Wrap(fmt.Errorf("failed to record earned achievement: %w", err), pkgerrors.DatabaseError)
		}
		if err := s.achievementRepo.DeleteProgress(ctx, tx, userID, candidate.ID); err != nil {
			return nil, pkgerrors.Wrap(fmt.Errorf("failed to clear achievement progress: %w", err), pkgerrors.DatabaseError)
		}

		logger.Info(ctx, "achievement earned",
			zap.Int64("user_id", userID),
			zap.Int64("achievement_id", candidate.ID),
			zap.String("name", candidate.Name))

		earned = append(earned, repository.EarnedAchievement{
			ID:          candidate.ID,
			Name:        candidate.Name,
			Description: candidate.Description,
			Icon:        candidate.Icon,
		})
	}
	return earned, nil
}

func (s *achievementService) ListAll(ctx context.Context, userID int64) (map[string][]repository.AchievementStatus, error) {
	grouped, err := s.achievementRepo.ListGroupedWithStatus(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(fmt.Errorf("failed to list achievements: %w", err), pkgerrors.DatabaseError)
	}
	return grouped, nil
}

func (s *achievementService) ListEarned(ctx context.Context, userID int64) (map[string][]repository.AchievementStatus, error) {
	grouped, err := s.achievementRepo.ListGroupedEarned(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(fmt.Errorf("failed to list earned achievements: %w", err), pkgerrors.DatabaseError)
	}
	return grouped, nil
}
