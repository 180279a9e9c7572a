package config

import (
	"errors"
	"fmt"
	"time"

	shared "github.com/tradeguard/platform/shared/config"
)

// Store backends selectable with STORE.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
)

// Config holds everything the API process reads from the environment.
type Config struct {
	shared.CommonConfig

	HTTP_ADDR   string
	GRPC_ADDR   string
	JWT_SECRET  string
	TOKEN_TTL   time.Duration
	STORE       string
	SQLITE_PATH string
}

// LoadConfig returns a config struct , it reads environment variables and
// applies the defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		CommonConfig: *shared.LoadCommonConfig(),
		HTTP_ADDR:    shared.GetEnv("HTTP_ADDR", ":5000"),
		GRPC_ADDR:    shared.GetEnv("GRPC_ADDR", ":50051"),
		JWT_SECRET:   shared.GetEnv("JWT_SECRET", ""),
		STORE:        shared.GetEnv("STORE", StorePostgres),
		SQLITE_PATH:  shared.GetEnv("SQLITE_PATH", "tradeguard.db"),
	}

	ttl, err := time.ParseDuration(shared.GetEnv("TOKEN_TTL", "90m"))
	if err != nil {
		return nil, fmt.Errorf("TOKEN_TTL: %w", err)
	}
	cfg.TOKEN_TTL = ttl

	switch cfg.STORE {
	case StorePostgres, StoreMemory, StoreSQLite:
	default:
		return nil, fmt.Errorf("STORE must be postgres, memory or sqlite, got %q", cfg.STORE)
	}
	if cfg.JWT_SECRET == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}
