package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadLayersFileAndEnvironment(t *testing.T) {
	path := writeFile(t, `
server:
  port: 9000
database:
  driver: SQLite
  path: from-file.db
auth:
  jwt_secret: file-secret
  jwt_expiry: 30m
cors:
  allowed_origins: ["https://app.example.com"]
`)
	t.Setenv("DATABASE_PATH", "from-env.db")
	t.Setenv("RATE_LIMIT_LOGIN", "42")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, DriverSQLite, cfg.Database.Driver)
	require.Equal(t, "from-env.db", cfg.Database.Path)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWTExpiry)
	require.Equal(t, 42, cfg.RateLimit.LoginPerMinute)
	require.Equal(t, []string{"https://app.example.com"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, "admin@smartevent.com", cfg.AdminBootstrap.Email)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config file")

	_, err = Load(writeFile(t, "server: [not a map"))
	require.ErrorContains(t, err, "parse config file")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Defaults()
		cfg.Database.URL = "postgres://localhost/smartevent"
		cfg.Auth.JWTSecret = "dev-secret"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults with secrets", mutate: func(*Config) {}},
		{name: "postgres without url", mutate: func(c *Config) { c.Database.URL = "" }, wantErr: "DATABASE_URL"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Database.Driver = DriverSQLite; c.Database.Path = "" }, wantErr: "DATABASE_PATH"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "unsupported database driver"},
		{name: "missing secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: "JWT_SECRET is required"},
		{name: "short secret in production", mutate: func(c *Config) { c.Environment = "production" }, wantErr: "at least 32 bytes"},
		{name: "zero expiry", mutate: func(c *Config) { c.Auth.JWTExpiry = 0 }, wantErr: "JWT_EXPIRY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("event_id", "e1").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, "shown", line["message"])
	require.Equal(t, "warn", line["level"])
	require.Equal(t, "e1", line["event_id"])
	require.Contains(t, line, "time")
}
