package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.False(t, cfg.Server.Concurrent)
	assert.Equal(t, 1024, cfg.Server.ReadBufferBytes)
	assert.Equal(t, 0, cfg.Server.IOTimeoutSeconds)
	assert.False(t, cfg.Admin.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "wire:outcomes", cfg.Redis.StatsKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://app:secret@db:5432/users?sslmode=disable")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_CONCURRENT", "true")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Server.Concurrent)
	assert.Equal(t, "postgres://app:secret@db:5432/users?sslmode=disable", cfg.DB.DSN())
}

func TestLoadConfig_AppEnvFile(t *testing.T) {
	dir := t.TempDir()
	content := "DB_HOST=pg.internal\nDB_NAME=people\nADMIN_ENABLED=true\nADMIN_PORT=9100\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.True(t, cfg.Admin.Enabled)
	assert.Equal(t, ":9100", cfg.Admin.Address())
	assert.Contains(t, cfg.DB.DSN(), "host=pg.internal")
	assert.Contains(t, cfg.DB.DSN(), "dbname=people")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DB:     DatabaseConfig{Host: "localhost", Name: "users", MaxOpenConns: 5},
			Server: ServerConfig{Port: "8080", ReadBufferBytes: 1024, MaxRequestBytes: 4096},
			Admin:  AdminConfig{Port: "8081"},
			Redis:  RedisConfig{Port: "6379", StatsKey: "wire:outcomes"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad server port", mutate: func(c *Config) { c.Server.Port = "http" }, wantErr: "SERVER_PORT"},
		{name: "admin port clash", mutate: func(c *Config) {
			c.Admin.Enabled = true
			c.Admin.Port = "8080"
		}, wantErr: "ADMIN_PORT must differ"},
		{name: "zero read buffer", mutate: func(c *Config) { c.Server.ReadBufferBytes = 0 }, wantErr: "SERVER_READ_BUFFER"},
		{name: "max below buffer", mutate: func(c *Config) { c.Server.MaxRequestBytes = 10 }, wantErr: "SERVER_MAX_REQUEST_BYTES"},
		{name: "no database", mutate: func(c *Config) { c.DB.Host = "" }, wantErr: "DATABASE_URL"},
		{name: "redis without key", mutate: func(c *Config) {
			c.Redis.Enabled = true
			c.Redis.StatsKey = ""
		}, wantErr: "REDIS_STATS_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
