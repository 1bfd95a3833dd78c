package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"sqlquest/internal/common/db"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrLoginExists  = errors.New("login already exists")
	ErrEmailExists  = errors.New("email already exists")
	ErrDuplicate    = errors.New("duplicate record")
)

// User is a platform account with its running score.
type User struct {
	ID           int64
	Login        string
	Email        string
	PasswordHash string
	TotalScore   int
	CreatedAt    time.Time
}

// Progress holds per-tier solved counters for one user.
type Progress struct {
	UserID       int64
	EasySolved   int
	MediumSolved int
	HardSolved   int
}

// RatingEntry is one row of the score leaderboard.
type RatingEntry struct {
	Login      string `json:"login"`
	TotalScore int    `json:"total_score"`
	Place      int    `json:"place"`
}

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, tx db.Transaction, user *User) (int64, error)
	CreateProgress(ctx context.Context, tx db.Transaction, userID int64) error
	GetByID(ctx context.Context, tx db.Transaction, id int64) (*User, error)
	GetByLogin(ctx context.Context, tx db.Transaction, login string) (*User, error)
	GetProgress(ctx context.Context, tx db.Transaction, userID int64) (*Progress, error)

	// AddScore applies a signed delta to the user's running score.
	AddScore(ctx context.Context, tx db.Transaction, userID int64, delta int) error

	// GetScore reads the current running score.
	GetScore(ctx context.Context, tx db.Transaction, userID int64) (int, error)

	// IncrementSolvedCounter bumps the per-tier solved counter for a mission.
	IncrementSolvedCounter(ctx context.Context, tx db.Transaction, userID int64, missionID int) error

	TopByScore(ctx context.Context, limit int) ([]RatingEntry, error)
	Place(ctx context.Context, userID int64) (*RatingEntry, error)
}

// PostgresUserRepository implements UserRepository on the main store.
type PostgresUserRepository struct {
	dbProvider db.Provider
}

// NewUserRepository creates a user repository.
func NewUserRepository(provider db.Provider) UserRepository {
	return &PostgresUserRepository{dbProvider: provider}
}

const userColumns = "user_id, login, email, password_hash, total_score, created_at"

// progressColumns maps mission tiers to counter columns; index is the tier.
var progressColumns = []string{
	"easy_tasks_solved",
	"medium_tasks_solved",
	"hard_tasks_solved",
}

func (r *PostgresUserRepository) Create(ctx context.Context, tx db.Transaction, user *User) (int64, error) {
	if user == nil {
		return 0, errors.New("user is nil")
	}

	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO users (login, email, password_hash, total_score)
		VALUES ($1, $2, $3, 0)
		RETURNING user_id
	`
	var id int64
	if err := querier.QueryRow(ctx, query, user.Login, user.Email, user.PasswordHash).Scan(&id); err != nil {
		if constraint, ok := db.UniqueViolation(err); ok {
			normalized := strings.ToLower(constraint)
			switch {
			case strings.Contains(normalized, "login"):
				return 0, ErrLoginExists
			case strings.Contains(normalized, "email"):
				return 0, ErrEmailExists
			default:
				return 0, ErrDuplicate
			}
		}
		return 0, err
	}
	user.ID = id
	return id, nil
}

func (r *PostgresUserRepository) CreateProgress(ctx context.Context, tx db.Transaction, userID int64) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO user_progress (user_id, easy_tasks_solved, medium_tasks_solved, hard_tasks_solved)
		VALUES ($1, 0, 0, 0)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err = querier.Exec(ctx, query, userID)
	return err
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, tx db.Transaction, id int64) (*User, error) {
	return r.getOne(ctx, tx, "SELECT "+userColumns+" FROM users WHERE user_id = $1", id)
}

func (r *PostgresUserRepository) GetByLogin(ctx context.Context, tx db.Transaction, login string) (*User, error) {
	return r.getOne(ctx, tx, "SELECT "+userColumns+" FROM users WHERE login = $1", login)
}

func (r *PostgresUserRepository) getOne(ctx context.Context, tx db.Transaction, query string, arg interface{}) (*User, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	user := &User{}
	row := querier.QueryRow(ctx, query, arg)
	if err := row.Scan(&user.ID, &user.Login, &user.Email, &user.PasswordHash, &user.TotalScore, &user.CreatedAt); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *PostgresUserRepository) GetProgress(ctx context.Context, tx db.Transaction, userID int64) (*Progress, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT user_id, easy_tasks_solved, medium_tasks_solved, hard_tasks_solved
		FROM user_progress
		WHERE user_id = $1
	`
	progress := &Progress{}
	row := querier.QueryRow(ctx, query, userID)
	if err := row.Scan(&progress.UserID, &progress.EasySolved, &progress.MediumSolved, &progress.HardSolved); err != nil {
		if db.IsNoRows(err) {
			// An account predating the progress table reads as all zeroes.
			return &Progress{UserID: userID}, nil
		}
		return nil, err
	}
	return progress, nil
}

func (r *PostgresUserRepository) AddScore(ctx context.Context, tx db.Transaction, userID int64, delta int) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	result, err := querier.Exec(ctx, "UPDATE users SET total_score = total_score + $1 WHERE user_id = $2", delta, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) GetScore(ctx context.Context, tx db.Transaction, userID int64) (int, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return 0, err
	}
	var score int
	row := querier.QueryRow(ctx, "SELECT total_score FROM users WHERE user_id = $1", userID)
	if err := row.Scan(&score); err != nil {
		if db.IsNoRows(err) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return score, nil
}

func (r *PostgresUserRepository) IncrementSolvedCounter(ctx context.Context, tx db.Transaction, userID int64, missionID int) error {
	if missionID < 0 || missionID >= len(progressColumns) {
		return errors.New("mission id out of range")
	}
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	column := progressColumns[missionID]
	query := "UPDATE user_progress SET " + column + " = " + column + " + 1 WHERE user_id = $1"
	result, err := querier.Exec(ctx, query, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) TopByScore(ctx context.Context, limit int) ([]RatingEntry, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, nil)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT login, total_score
		FROM users
		ORDER BY total_score DESC, user_id ASC
		LIMIT $1
	`
	rows, err := querier.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]RatingEntry, 0, limit)
	place := 0
	for rows.Next() {
		place++
		entry := RatingEntry{Place: place}
		if err := rows.Scan(&entry.Login, &entry.TotalScore); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *PostgresUserRepository) Place(ctx context.Context, userID int64) (*RatingEntry, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, nil)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT u.login, u.total_score,
		       (SELECT COUNT(*) + 1 FROM users o WHERE o.total_score > u.total_score) AS place
		FROM users u
		WHERE u.user_id = $1
	`
	entry := &RatingEntry{}
	row := querier.QueryRow(ctx, query, userID)
	if err := row.Scan(&entry.Login, &entry.TotalScore, &entry.Place); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return entry, nil
}
