package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"sqlquest/internal/common/cache"
	"sqlquest/internal/common/db"
	"sqlquest/internal/user/repository"
	pkgerrors "sqlquest/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type noopTx struct{}

func (noopTx) Query(ctx context.Context, query string, args ...interface{}) (db.Rows, error) {
	return nil, nil
}
func (noopTx) QueryRow(ctx context.Context, query string, args ...interface{}) db.Row { return nil }
func (noopTx) Exec(ctx context.Context, query string, args ...interface{}) (db.Result, error) {
	return nil, nil
}
func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

type countingDatabase struct {
	noopTx
	transactions int
}

func (d *countingDatabase) Transaction(ctx context.Context, fn func(tx db.Transaction) error) error {
	d.transactions++
	return fn(noopTx{})
}
func (d *countingDatabase) BeginTx(ctx context.Context, opts *db.TxOptions) (db.Transaction, error) {
	return noopTx{}, nil
}
func (d *countingDatabase) Ping(ctx context.Context) error { return nil }
func (d *countingDatabase) Close() error                   { return nil }

type memoryUserRepo struct {
	nextID        int64
	byLogin       map[string]*repository.User
	progress      map[int64]*repository.Progress
	progressErr   error
	createSawTx   bool
	progressSawTx bool
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{
		nextID:   1,
		byLogin:  make(map[string]*repository.User),
		progress: make(map[int64]*repository.Progress),
	}
}

func (m *memoryUserRepo) Create(ctx context.Context, tx db.Transaction, user *repository.User) (int64, error) {
	m.createSawTx = tx != nil
	if _, exists := m.byLogin[user.Login]; exists {
		return 0, repository.ErrLoginExists
	}
	for _, existing := range m.byLogin {
		if existing.Email == user.Email {
			return 0, repository.ErrEmailExists
		}
	}
	stored := *user
	stored.ID = m.nextID
	m.nextID++
	m.byLogin[stored.Login] = &stored
	return stored.ID, nil
}

func (m *memoryUserRepo) CreateProgress(ctx context.Context, tx db.Transaction, userID int64) error {
	m.progressSawTx = tx != nil
	if m.progressErr != nil {
		return m.progressErr
	}
	m.progress[userID] = &repository.Progress{}
	return nil
}

func (m *memoryUserRepo) GetByID(ctx context.Context, tx db.Transaction, id int64) (*repository.User, error) {
	for _, user := range m.byLogin {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memoryUserRepo) GetByLogin(ctx context.Context, tx db.Transaction, login string) (*repository.User, error) {
	user, ok := m.byLogin[login]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *memoryUserRepo) GetProgress(ctx context.Context, tx db.Transaction, userID int64) (*repository.Progress, error) {
	if progress, ok := m.progress[userID]; ok {
		return progress, nil
	}
	return &repository.Progress{}, nil
}

func (m *memoryUserRepo) AddScore(ctx context.Context, tx db.Transaction, userID int64, delta int) error {
	user, err := m.GetByID(ctx, tx, userID)
	if err != nil {
		return err
	}
	user.TotalScore += delta
	return nil
}

func (m *memoryUserRepo) GetScore(ctx context.Context, tx db.Transaction, userID int64) (int, error) {
	user, err := m.GetByID(ctx, tx, userID)
	if err != nil {
		return 0, err
	}
	return user.TotalScore, nil
}

func (m *memoryUserRepo) IncrementSolvedCounter(ctx context.Context, tx db.Transaction, userID int64, missionID int) error {
	return nil
}

func (m *memoryUserRepo) TopByScore(ctx context.Context, limit int) ([]repository.RatingEntry, error) {
	return nil, nil
}

func (m *memoryUserRepo) Place(ctx context.Context, userID int64) (*repository.RatingEntry, error) {
	user, err := m.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	entry := &repository.RatingEntry{Login: user.Login, TotalScore: user.TotalScore, Place: 1}
	for _, other := range m.byLogin {
		if other.TotalScore > user.TotalScore {
			entry.Place++
		}
	}
	return entry, nil
}

func newAuthTestService(t *testing.T) (AuthService, *memoryUserRepo, *countingDatabase, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	redisCache := cache.NewRedisCacheWithClient(client)

	users := newMemoryUserRepo()
	database := &countingDatabase{}
	svc := NewAuthService(database, users, redisCache, AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	})
	return svc, users, database, server
}

func registerRequest() *RegisterRequest {
	return &RegisterRequest{
		Login:    "alice",
		Email:    "alice@example.com",
		Password: "Passw0rd",
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, users, database, _ := newAuthTestService(t)
	ctx := context.Background()

	token, err := svc.Register(ctx, registerRequest())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if token.AccessToken == "" || token.TokenType != "bearer" {
		t.Fatalf("unexpected token response: %+v", token)
	}
	if _, ok := users.progress[1]; !ok {
		t.Fatalf("registration must create the progress row")
	}
	if database.transactions != 1 {
		t.Fatalf("registration must run in one transaction, got %d", database.transactions)
	}
	if !users.createSawTx || !users.progressSawTx {
		t.Fatalf("user and progress rows must be written through the transaction")
	}

	info, err := svc.Authenticate(ctx, token.AccessToken)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if info.UserID != 1 || info.Login != "alice" {
		t.Fatalf("unexpected auth info: %+v", info)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	svc, _, _, _ := newAuthTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerRequest()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err := svc.Register(ctx, registerRequest())
	if !pkgerrors.Is(err, pkgerrors.LoginAlreadyExists) {
		t.Fatalf("expected duplicate login, got %v", err)
	}

	other := registerRequest()
	other.Login = "bob"
	_, err = svc.Register(ctx, other)
	if !pkgerrors.Is(err, pkgerrors.EmailAlreadyExists) {
		t.Fatalf("expected duplicate email, got %v", err)
	}
}

func TestRegisterFailsWhenProgressRowFails(t *testing.T) {
	svc, users, database, _ := newAuthTestService(t)
	users.progressErr = errors.New("progress insert failed")

	_, err := svc.Register(context.Background(), registerRequest())
	if !pkgerrors.Is(err, pkgerrors.DatabaseError) {
		t.Fatalf("expected database error, got %v", err)
	}
	if database.transactions != 1 {
		t.Fatalf("expected one rolled back transaction, got %d", database.transactions)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _, _ := newAuthTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerRequest()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, err := svc.Login(ctx, &LoginRequest{Login: "alice", Password: "Passw0rd"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token.AccessToken == "" {
		t.Fatalf("expected access token")
	}

	_, err = svc.Login(ctx, &LoginRequest{Login: "alice", Password: "wrong"})
	if !pkgerrors.Is(err, pkgerrors.InvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	_, err = svc.Login(ctx, &LoginRequest{Login: "nobody", Password: "Passw0rd"})
	if !pkgerrors.Is(err, pkgerrors.InvalidCredentials) {
		t.Fatalf("unknown login must look like bad credentials, got %v", err)
	}
}

func TestLoginThrottling(t *testing.T) {
	svc, _, _, _ := newAuthTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerRequest()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	for attempt := 0; attempt < maxLoginFailures; attempt++ {
		_, err := svc.Login(ctx, &LoginRequest{Login: "alice", Password: "wrong"})
		if !pkgerrors.Is(err, pkgerrors.InvalidCredentials) {
			t.Fatalf("attempt %d: expected invalid credentials, got %v", attempt, err)
		}
	}

	_, err := svc.Login(ctx, &LoginRequest{Login: "alice", Password: "Passw0rd"})
	if !pkgerrors.Is(err, pkgerrors.LoginTooFrequently) {
		t.Fatalf("expected throttle after %d failures, got %v", maxLoginFailures, err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _, _, _ := newAuthTestService(t)
	ctx := context.Background()

	token, err := svc.Register(ctx, registerRequest())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := svc.Logout(ctx, token.AccessToken); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	_, err = svc.Authenticate(ctx, token.AccessToken)
	if !pkgerrors.Is(err, pkgerrors.TokenInvalid) {
		t.Fatalf("revoked token must be rejected, got %v", err)
	}
}

func TestAuthenticateGarbageToken(t *testing.T) {
	svc, _, _, _ := newAuthTestService(t)
	_, err := svc.Authenticate(context.Background(), "not-a-token")
	if !pkgerrors.Is(err, pkgerrors.TokenInvalid) {
		t.Fatalf("expected token invalid, got %v", err)
	}
}
