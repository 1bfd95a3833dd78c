package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sqlquest/internal/common/cache"
	"sqlquest/internal/user/repository"
	pkgerrors "sqlquest/pkg/errors"
)

const (
	ratingCacheKey = "rating:top"
	ratingCacheTTL = 30 * time.Second
	ratingTopLimit = 100
)

// PersonalRating is the caller's own leaderboard entry.
type PersonalRating struct {
	Login      string `json:"login"`
	TotalScore int    `json:"total_score"`
	Place      int    `json:"place"`
}

// RatingService serves the leaderboard.
type RatingService interface {
	// Top returns the global leaderboard. The list is cached briefly since
	// it is read far more often than scores change.
	Top(ctx context.Context, userID int64) ([]repository.RatingEntry, error)

	// Personal returns the caller's own place. Not cached; always exact.
	Personal(ctx context.Context, userID int64) (*PersonalRating, error)
}

type ratingService struct {
	userRepo repository.UserRepository
	cache    cache.Cache
}

// NewRatingService creates a rating service.
func NewRatingService(userRepo repository.UserRepository, c cache.Cache) RatingService {
	return &ratingService{userRepo: userRepo, cache: c}
}

func (s *ratingService) Top(ctx context.Context, userID int64) ([]repository.RatingEntry, error) {
	entries, err := cache.GetWithCached(ctx, s.cache, ratingCacheKey,
		cache.JitterTTL(ratingCacheTTL), ratingCacheTTL,
		func(entries []repository.RatingEntry) bool { return len(entries) == 0 },
		func(entries []repository.RatingEntry) string {
			data, _ := json.Marshal(entries)
			return string(data)
		},
		func(raw string) ([]repository.RatingEntry, error) {
			var entries []repository.RatingEntry
			err := json.Unmarshal([]byte(raw), &entries)
			return entries, err
		},
		func(ctx context.Context) ([]repository.RatingEntry, error) {
			return s.userRepo.TopByScore(ctx, ratingTopLimit)
		})
	if err != nil {
		return nil, pkgerrors.Wrap(fmt.Errorf("failed to load rating: %w", err), pkgerrors.DatabaseError)
	}
	return entries, nil
}

func (s *ratingService) Personal(ctx context.Context, userID int64) (*PersonalRating, error) {
	entry, err := s.userRepo.Place(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, pkgerrors.New(pkgerrors.UserNotFound)
		}
		return nil, pkgerrors.Wrap(fmt.Errorf("failed to compute place: %w", err), pkgerrors.DatabaseError)
	}
	return &PersonalRating{
		Login:      entry.Login,
		TotalScore: entry.TotalScore,
		Place:      entry.Place,
	}, nil
}
