package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults",
			env:  map[string]string{"JWT_SECRET": "s3cret"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ":5000", cfg.HTTP_ADDR)
				assert.Equal(t, ":50051", cfg.GRPC_ADDR)
				assert.Equal(t, 90*time.Minute, cfg.TOKEN_TTL)
				assert.Equal(t, StorePostgres, cfg.STORE)
			},
		},
		{
			name: "overrides",
			env:  map[string]string{"JWT_SECRET": "s3cret", "STORE": "sqlite", "SQLITE_PATH": "/tmp/tg.db", "TOKEN_TTL": "15m"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, StoreSQLite, cfg.STORE)
				assert.Equal(t, "/tmp/tg.db", cfg.SQLITE_PATH)
				assert.Equal(t, 15*time.Minute, cfg.TOKEN_TTL)
			},
		},
		{name: "missing secret", env: map[string]string{}, wantErr: "JWT_SECRET"},
		{name: "unknown store", env: map[string]string{"JWT_SECRET": "x", "STORE": "mongo"}, wantErr: "STORE"},
		{name: "bad ttl", env: map[string]string{"JWT_SECRET": "x", "TOKEN_TTL": "forever"}, wantErr: "TOKEN_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"JWT_SECRET", "STORE", "SQLITE_PATH", "TOKEN_TTL", "HTTP_ADDR", "GRPC_ADDR"} {
				t.Setenv(key, tt.env[key])
			}
			cfg, err := LoadConfig()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}
