package config

import (
	"bytes"
	"encoding/base64"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "API_BASE_URL", "DB_PATH", "SESSION_MAX_AGE", "CACHE_TTL", "LOG_LEVEL", "EMAIL_VALIDATION_POLICY", "IMAGE_MAX_WIDTH"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8585", cfg.Port)
	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, "./flowerseal.db", cfg.DBPath)
	assert.Equal(t, 720*time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Zero(t, cfg.CacheTTL)
	assert.Equal(t, uint(800), cfg.ImageMaxWidth)
	assert.Equal(t, "best-effort", cfg.EmailValidationPolicy)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Len(t, cfg.CSRFKey, 32)
	assert.Len(t, cfg.SessionKey, 32)
}

func TestOverrides(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	t.Setenv("PORT", "9000")
	t.Setenv("API_BASE_URL", "https://api.example.com/")
	t.Setenv("SESSION_KEY", key)
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("IMAGE_MAX_WIDTH", "640")
	t.Setenv("EMAIL_VALIDATION_POLICY", "strict")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, bytes.Repeat([]byte{7}, 32), cfg.SessionKey)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, uint(640), cfg.ImageMaxWidth)
	assert.Equal(t, "strict", cfg.EmailValidationPolicy)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "http")
	t.Setenv("REQUEST_TIMEOUT", "soon")
	t.Setenv("CSRF_KEY", "c2hvcnQ=")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8585", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Len(t, cfg.CSRFKey, 32)
}

func TestSecretFromFile(t *testing.T) {
	key := bytes.Repeat([]byte{9}, 48)
	path := filepath.Join(t.TempDir(), "csrf")
	require.NoError(t, os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString(key)+"\n"), 0o600))
	t.Setenv("CSRF_KEY_FILE", path)
	t.Setenv("CSRF_KEY", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, key, cfg.CSRFKey)
}

func TestRejectsRelativeAPIBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "/api")
	_, err := LoadConfig()
	assert.ErrorIs(t, err, ErrInvalidAPIBaseURL)
}

func TestRejectsUnknownEmailPolicy(t *testing.T) {
	t.Setenv("EMAIL_VALIDATION_POLICY", "sometimes")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: slog.LevelInfo, LogFormat: "json"}
	cfg.Logger(&buf).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	cfg.LogFormat = "text"
	cfg.Logger(&buf).Debug("hidden")
	assert.Empty(t, buf.String())
}
