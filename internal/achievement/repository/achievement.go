package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"sqlquest/internal/common/db"

	"github.com/lib/pq"
)

var (
	ErrAchievementNotFound = errors.New("achievement not found")
)

// Achievement is an immutable achievement definition. Tag and RequiredCount
// are optional: only definitions carrying both are ever auto-evaluated by
// the submission pipeline.
type Achievement struct {
	ID             int64
	CategoryName   string
	Icon           string
	Name           string
	Description    string
	HistoricalInfo string
	Tag            *string
	RequiredCount  *int
}

// EarnedAchievement is the caller-facing shape of an awarded achievement.
type EarnedAchievement struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// AchievementStatus is one achievement with the per-user earned flag.
type AchievementStatus struct {
	ID             int64  `json:"achievement_id"`
	Icon           string `json:"icon"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	HistoricalInfo string `json:"historical_info"`
	IsEarned       bool   `json:"is_earned"`
}

// AchievementRepository defines achievement persistence operations.
type AchievementRepository interface {
	// ListTriggeredByTags returns definitions with a configured threshold
	// whose tag intersects the given task tags.
	ListTriggeredByTags(ctx context.Context, tx db.Transaction, tags []string) ([]Achievement, error)

	// EarnedExists reports whether the user already holds the achievement.
	EarnedExists(ctx context.Context, tx db.Transaction, userID, achievementID int64) (bool, error)

	// IncrementProgress atomically inserts a progress counter at 1 or bumps
	// an existing one, returning the post-increment value. Single statement;
	// no read-modify-write window.
	IncrementProgress(ctx context.Context, tx db.Transaction, userID, achievementID int64) (int, error)

	// CreateEarned records the earned achievement fact.
	CreateEarned(ctx context.Context, tx db.Transaction, userID, achievementID int64) error

	// DeleteProgress removes the progress counter once the threshold is met.
	DeleteProgress(ctx context.Context, tx db.Transaction, userID, achievementID int64) error

	// ListGroupedWithStatus returns all achievements grouped by category with
	// the per-user earned flag.
	ListGroupedWithStatus(ctx context.Context, userID int64) (map[string][]AchievementStatus, error)

	// ListGroupedEarned returns only the user's earned achievements grouped
	// by category.
	ListGroupedEarned(ctx context.Context, userID int64) (map[string][]AchievementStatus, error)
}

// PostgresAchievementRepository implements AchievementRepository on the main store.
type PostgresAchievementRepository struct {
	dbProvider db.Provider
}

// NewAchievementRepository creates an achievement repository.
func NewAchievementRepository(provider db.Provider) AchievementRepository {
	return &PostgresAchievementRepository{dbProvider: provider}
}

const achievementColumns = "achievement_id, category_name, icon, name, description, historical_info, tag, required_count"

func (r *PostgresAchievementRepository) ListTriggeredByTags(ctx context.Context, tx db.Transaction, tags []string) ([]Achievement, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT ` + achievementColumns + `
		FROM achievements
		WHERE required_count IS NOT NULL AND tag = ANY($1)
		ORDER BY achievement_id
	`
	rows, err := querier.Query(ctx, query, pq.Array(tags))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var achievements []Achievement
	for rows.Next() {
		achievement := Achievement{}
		var tag sql.NullString
		var requiredCount sql.NullInt64
		if err := rows.Scan(
			&achievement.ID,
			&achievement.CategoryName,
			&achievement.Icon,
			&achievement.Name,
			&achievement.Description,
			&achievement.HistoricalInfo,
			&tag,
			&requiredCount,
		); err != nil {
			return nil, err
		}
		if tag.Valid {
			achievement.Tag = &tag.String
		}
		if requiredCount.Valid {
			count := int(requiredCount.Int64)
			achievement.RequiredCount = &count
		}
		achievements = append(achievements, achievement)
	}
	return achievements, rows.Err()
}

func (r *PostgresAchievementRepository) EarnedExists(ctx context.Context, tx db.Transaction, userID, achievementID int64) (bool, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return false, err
	}
	var exists bool
	query := "SELECT EXISTS (SELECT 1 FROM users_achievements WHERE user_id = $1 AND achievement_id = $2)"
	if err := querier.QueryRow(ctx, query, userID, achievementID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresAchievementRepository) IncrementProgress(ctx context.Context, tx db.Transaction, userID, achievementID int64) (int, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return 0, err
	}
	query := `
		INSERT INTO user_achievement_progress (user_id, achievement_id, current_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, achievement_id)
		DO UPDATE SET current_count = user_achievement_progress.current_count + 1
		RETURNING current_count
	`
	var count int
	if err := querier.QueryRow(ctx, query, userID, achievementID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresAchievementRepository) CreateEarned(ctx context.Context, tx db.Transaction, userID, achievementID int64) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO users_achievements (user_id, achievement_id, earned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`
	_, err = querier.Exec(ctx, query, userID, achievementID, time.Now().UTC())
	return err
}

func (r *PostgresAchievementRepository) DeleteProgress(ctx context.Context, tx db.Transaction, userID, achievementID int64) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	_, err = querier.Exec(ctx, "DELETE FROM user_achievement_progress WHERE user_id = $1 AND achievement_id = $2", userID, achievementID)
	return err
}

func (r *PostgresAchievementRepository) ListGroupedWithStatus(ctx context.Context, userID int64) (map[string][]AchievementStatus, error) {
	query := `
		SELECT a.category_name, a.achievement_id, a.icon, a.name, a.description, a.historical_info,
		       e.achievement_id IS NOT NULL AS is_earned
		FROM achievements a
		LEFT JOIN users_achievements e
		  ON e.achievement_id = a.achievement_id AND e.user_id = $1
		ORDER BY a.category_name, a.achievement_id
	`
	return r.listGrouped(ctx, query, userID)
}

func (r *PostgresAchievementRepository) ListGroupedEarned(ctx context.Context, userID int64) (map[string][]AchievementStatus, error) {
	query := `
		SELECT a.category_name, a.achievement_id, a.icon, a.name, a.description, a.historical_info,
		       TRUE AS is_earned
		FROM achievements a
		JOIN users_achievements e
		  ON e.achievement_id = a.achievement_id
		WHERE e.user_id = $1
		ORDER BY a.category_name, a.achievement_id
	`
	return r.listGrouped(ctx, query, userID)
}

func (r *PostgresAchievementRepository) listGrouped(ctx context.Context, query string, userID int64) (map[string][]AchievementStatus, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, nil)
	if err != nil {
		return nil, err
	}
	rows, err := querier.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grouped := make(map[string][]AchievementStatus)
	for rows.Next() {
		var category string
		status := AchievementStatus{}
		if err := rows.Scan(
			&category,
			&status.ID,
			&status.Icon,
			&status.Name,
			&status.Description,
			&status.HistoricalInfo,
			&status.IsEarned,
		); err != nil {
			return nil, err
		}
		grouped[category] = append(grouped[category], status)
	}
	return grouped, rows.Err()
}
