package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sqlquest/internal/common/cache"
	"sqlquest/internal/common/db"
	"sqlquest/internal/common/http/middleware"
	"sqlquest/internal/user/repository"
	pkgerrors "sqlquest/pkg/errors"
	"sqlquest/pkg/utils/logger"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	loginFailKeyPrefix = "auth:login:fail:"
	tokenRevokedPrefix = "auth:token:revoked:"
	maxLoginFailures   = 5
	loginFailWindow    = 10 * time.Minute
)

// AuthConfig holds token issuing parameters.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwtSecret"`
	TokenTTL  time.Duration `yaml:"tokenTTL"`
}

// SetDefaults fills missing auth config values.
func (c *AuthConfig) SetDefaults() {
	if c.TokenTTL <= 0 {
		c.TokenTTL = 24 * time.Hour
	}
}

// RegisterRequest carries new account fields.
type RegisterRequest struct {
	Login    string `json:"login" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is returned on successful registration or login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type tokenClaims struct {
	UserID int64  `json:"user_id"`
	Login  string `json:"login"`
	jwt.RegisteredClaims
}

// AuthService handles registration, login and token verification.
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*TokenResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*middleware.AuthInfo, error)
}

type authService struct {
	database db.Database
	userRepo repository.UserRepository
	cache    cache.Cache
	config   AuthConfig
}

// NewAuthService creates an auth service.
func NewAuthService(database db.Database, userRepo repository.UserRepository, c cache.Cache, config AuthConfig) AuthService {
	config.SetDefaults()
	return &authService{database: database, userRepo: userRepo, cache: c, config: config}
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*TokenResponse, error) {
	if err := ValidateLogin(req.Login); err != nil {
		return nil, err
	}
	if err := ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, pkgerrors.Wrap(fmt.Errorf("failed to hash password: %w", err), pkgerrors.InternalServerError)
	}

	user := &repository.User{
		Login:        req.Login,
		Email:        req.Email,
		PasswordHash: string(hash),
	}

	// The account and its zeroed progress row are created atomically; a
	// user without a progress row would lose solved-counter updates.
	var userID int64
	err = s.database.Transaction(ctx, func(tx db.Transaction) error {
		userID, err = s.userRepo.Create(ctx, tx, user)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrLoginExists):
				return pkgerrors.New(pkgerrors.LoginAlreadyExists)
			case errors.Is(err, repository.ErrEmailExists):
				return pkgerrors.New(pkgerrors.EmailAlreadyExists)
			default:
				return pkgerrors.Wrap(fmt.Errorf("failed to create user: %w", err), pkgerrors.DatabaseError)
			}
		}
		if err := s.userRepo.CreateProgress(ctx, tx, userID); err != nil {
			return pkgerrors.Wrap(fmt.Errorf("failed to create user progress: %w", err), pkgerrors.DatabaseError)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user registered",
		zap.Int64("user_id", userID),
		zap.String("login", user.Login))

	return s.issueToken(userID, user.Login)
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	failKey := loginFailKeyPrefix + req.Login
	if blocked, err := s.loginBlocked(ctx, failKey); err != nil {
		logger.Warn(ctx, "login throttle check failed", zap.Error(err))
	} else if blocked {
		return nil, pkgerrors.New(pkgerrors.LoginTooFrequently)
	}

	user, err := s.userRepo.GetByLogin(ctx, nil, req.Login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.recordLoginFailure(ctx, failKey)
			return nil, pkgerrors.New(pkgerrors.InvalidCredentials)
		}
		return nil, pkgerrors.Wrap(fmt.Errorf("failed to load user: %w", err), pkgerrors.DatabaseError)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.recordLoginFailure(ctx, failKey)
		return nil, pkgerrors.New(pkgerrors.InvalidCredentials)
	}

	if err := s.cache.Del(ctx, failKey); err != nil {
		logger.Warn(ctx, "failed to reset login failures", zap.Error(err))
	}

	return s.issueToken(user.ID, user.Login)
}

func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return err
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, tokenRevokedPrefix+token, "1", ttl); err != nil {
		return pkgerrors.Wrap(fmt.Errorf("failed to revoke token: %w", err), pkgerrors.CacheError)
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*middleware.AuthInfo, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.cache.Exists(ctx, tokenRevokedPrefix+token)
	if err != nil {
		logger.Warn(ctx, "token revocation check failed", zap.Error(err))
	} else if revoked > 0 {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	return &middleware.AuthInfo{UserID: claims.UserID, Login: claims.Login}, nil
}

func (s *authService) issueToken(userID int64, login string) (*TokenResponse, error) {
	now := time.Now()
	claims := tokenClaims{
		UserID: userID,
		Login:  login,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, pkgerrors.Wrap(fmt.Errorf("failed to sign token: %w", err), pkgerrors.TokenGenerationFailed)
	}
	return &TokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.config.TokenTTL / time.Second),
	}, nil
}

func (s *authService) parseToken(token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, pkgerrors.New(pkgerrors.TokenExpired)
		}
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	if !parsed.Valid {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	return claims, nil
}

func (s *authService) loginBlocked(ctx context.Context, key string) (bool, error) {
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if value == "" {
		return false, nil
	}
	var failures int
	if _, err := fmt.Sscanf(value, "%d", &failures); err != nil {
		return false, nil
	}
	return failures >= maxLoginFailures, nil
}

func (s *authService) recordLoginFailure(ctx context.Context, key string) {
	count, err := s.cache.Incr(ctx, key)
	if err != nil {
		logger.Warn(ctx, "failed to record login failure", zap.Error(err))
		return
	}
	if count == 1 {
		if err := s.cache.Expire(ctx, key, loginFailWindow); err != nil {
			logger.Warn(ctx, "failed to set login failure window", zap.Error(err))
		}
	}
}
