package main

import (
	"fmt"
	"os"
	"time"

	"sqlquest/internal/common/cache"
	"sqlquest/internal/common/db"
	"sqlquest/internal/user/service"
	"sqlquest/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// SandboxConfig holds player query execution settings.
type SandboxConfig struct {
	StatementTimeout time.Duration `yaml:"statementTimeout"`
}

// AppConfig holds the game-service configuration. The main database stores
// accounts, tasks and scores; the game database is the read-only world the
// player queries run against.
type AppConfig struct {
	Server       ServerConfig        `yaml:"server"`
	Logger       logger.Config       `yaml:"logger"`
	Auth         service.AuthConfig  `yaml:"auth"`
	Sandbox      SandboxConfig       `yaml:"sandbox"`
	MainDatabase db.PostgreSQLConfig `yaml:"mainDatabase"`
	GameDatabase db.PostgreSQLConfig `yaml:"gameDatabase"`
	Redis        cache.RedisConfig   `yaml:"redis"`
}

func loadAppConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file failed: %w", err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file failed: %w", err)
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwtSecret is required")
	}
	if cfg.MainDatabase.DSN == "" {
		return nil, fmt.Errorf("mainDatabase.dsn is required")
	}
	if cfg.GameDatabase.DSN == "" {
		return nil, fmt.Errorf("gameDatabase.dsn is required")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis.addr is required")
	}

	return &cfg, nil
}
