package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  address: ":8080"
  env: production
  allowed_origins: ["https://market.example.com"]
database:
  driver: mysql
  url: "market:secret@tcp(localhost:3306)/market?parseTime=true"
session:
  secret: file-secret
  store: sql
  ttl: 24h
  cookie_name: sid
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, []string{"https://market.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "sid", cfg.Session.CookieName)
	// untouched sections keep their defaults
	assert.Equal(t, "local", cfg.Media.Driver)
	require.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	cfg := Default()
	env := map[string]string{
		"PORT":            "9000",
		"DATABASE_DRIVER": "pgx",
		"DATABASE_URL":    "postgres://localhost/market",
		"SESSION_SECRET":  "env-secret",
		"SESSION_STORE":   "redis",
		"SESSION_TTL":     "2h",
		"REDIS_ADDR":      "redis:6379",
		"ALLOWED_ORIGINS": "https://a.example.com, https://b.example.com",
	}
	err := cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "env-secret", cfg.Session.Secret)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	require.NoError(t, cfg.Validate())
}

func TestEnvOverrideBadDuration(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(func(k string) (string, bool) {
		if k == "SESSION_TTL" {
			return "forever", true
		}
		return "", false
	})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing secret", func(c *Config) { c.Session.Secret = "" }, "session.secret"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }, "unknown database.driver"},
		{"sql sessions on memory db", func(c *Config) { c.Session.Store = "sql" }, `session.store "sql"`},
		{"mysql without url", func(c *Config) { c.Database.Driver = "mysql" }, "database.url"},
		{"s3 without bucket", func(c *Config) { c.Media.Driver = "s3" }, "media.bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Session.Secret = "secret"
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	cfg := Default()
	cfg.Session.Secret = "secret"
	require.NoError(t, cfg.Validate())
}
