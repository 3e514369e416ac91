package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/position-helper-go/pkg/scheduler"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("ADMIN_PASSWORD", "hunter2")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/ph")
	t.Setenv("SUGGEST_SAME_WEEK", "-400")
	t.Setenv("SUGGEST_DISALLOW_REPEATS", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Server.LoginDelay)
	assert.Equal(t, "postgres://localhost/ph", cfg.Database.URL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "json", cfg.Log.Format)

	opts := cfg.Suggest.Options()
	assert.Equal(t, -400.0, opts.Weights.SameWeek)
	assert.Equal(t, scheduler.DefaultWeights().Recency, opts.Weights.Recency)
	assert.True(t, opts.DisallowRepeats)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "auth:\n  jwt_secret: file-secret-0123456789\n  admin_password: pw\nlog:\n  format: console\nsuggest:\n  recency_window: 6\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 6, cfg.Suggest.Options().RecencyWindow)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Server: ServerConfig{Port: 8000},
		Auth:   AuthConfig{JWTSecret: "0123456789abcdef", AdminPassword: "pw"},
		Log:    LogConfig{Format: "json"},
	}
	require.NoError(t, valid.Validate())

	short := valid
	short.Auth.JWTSecret = "short"
	assert.Error(t, short.Validate())

	noPassword := valid
	noPassword.Auth.AdminPassword = ""
	assert.Error(t, noPassword.Validate())

	badPort := valid
	badPort.Server.Port = 70000
	assert.Error(t, badPort.Validate())

	badFormat := valid
	badFormat.Log.Format = "xml"
	assert.Error(t, badFormat.Validate())
}
