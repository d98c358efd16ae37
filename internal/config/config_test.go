package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "gpt-4o-mini", cfg.GPTModel)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.ClaudeModel)
	assert.Equal(t, 4*time.Hour, cfg.RateLimitWindow)
	assert.Equal(t, 300*time.Second, cfg.ChatTimeout)
	assert.Equal(t, 60*time.Second, cfg.AdminTimeout)
	assert.Equal(t, 3, cfg.ContextLimit)
	assert.Equal(t, 10000, cfg.MaxMessageLength)
	assert.Equal(t, int64(65536), cfg.WSMaxMessageSize)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("GOGO_MODE", "mock")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("CHAT_TIMEOUT_MS", "1500")

	cfg := Load(nil)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.True(t, cfg.MockMode())
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 1500*time.Millisecond, cfg.ChatTimeout)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.Contains(t, err.Error(), "CLAUDE_API_KEY")

	cfg.JWTSecret = "s3cret"
	cfg.Mode = ModeMock
	assert.NoError(t, cfg.Validate())

	cfg.DatabaseURL = ""
	assert.ErrorIs(t, cfg.Validate(), ErrConfiguration)
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "absent.env"), false))
	assert.Error(t, LoadEnvFile(filepath.Join(t.TempDir(), "absent.env"), true))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CLAUDE_MODEL=claude-from-file\n"), 0600))
	t.Setenv("CLAUDE_MODEL", "")
	os.Unsetenv("CLAUDE_MODEL")

	require.NoError(t, LoadEnvFile(path, true))
	t.Cleanup(func() { os.Unsetenv("CLAUDE_MODEL") })
	assert.Equal(t, "claude-from-file", Load(nil).ClaudeModel)
}
