// Package config provides configuration for the chat service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ModeMock selects the mock model backends.
const ModeMock = "MOCK"

// ErrConfiguration marks missing or invalid required configuration.
var ErrConfiguration = errors.New("configuration error")

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Model backends
	OpenAIAPIKey  string
	OpenAIBaseURL string
	ClaudeAPIKey  string
	GPTModel      string
	ClaudeModel   string
	LLMTimeout    time.Duration
	Mode          string

	// Identity
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	// Timeouts
	ChatTimeout  time.Duration
	AdminTimeout time.Duration

	// Chat policy
	RateLimitWindow  time.Duration
	ContextLimit     int
	MaxMessageLength int

	// WebSocket
	WSPingInterval   time.Duration
	WSWriteTimeout   time.Duration
	WSReadTimeout    time.Duration
	WSMaxMessageSize int64

	// Logging
	LogLevel string
	LogFile  string
}

var defaults = map[string]interface{}{
	"HTTP_PORT":            8080,
	"DATABASE_URL":         "file:chat.db?mode=rwc&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate",
	"GPT_MODEL":            "gpt-4o-mini",
	"CLAUDE_MODEL":         "claude-3-5-haiku-latest",
	"LLM_TIMEOUT_MS":       120000,
	"AUTH_JWT_AUDIENCE":    "authenticated",
	"CHAT_TIMEOUT_MS":      300000,
	"ADMIN_TIMEOUT_MS":     60000,
	"RATE_LIMIT_WINDOW_MS": 14400000,
	"CONTEXT_LIMIT":        3,
	"MAX_MESSAGE_LENGTH":   10000,
	"WS_PING_INTERVAL_MS":  30000,
	"WS_WRITE_TIMEOUT_MS":  10000,
	"WS_READ_TIMEOUT_MS":   60000,
	"WS_MAX_MESSAGE_SIZE":  65536,
	"LOG_LEVEL":            "info",
}

var envKeys = []string{
	"OPENAI_API_KEY", "OPENAI_BASE_URL", "CLAUDE_API_KEY",
	"AUTH_JWT_SECRET", "AUTH_JWT_ISSUER", "LOG_FILE", "GOGO_MODE",
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an
// error unless the path was given explicitly.
func LoadEnvFile(path string, explicit bool) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// NewViper returns a viper instance with defaults set and environment
// variables bound.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	v.AutomaticEnv()
	return v
}

// Load builds a Config from v. A nil v reads the environment only.
func Load(v *viper.Viper) *Config {
	if v == nil {
		v = NewViper()
	}
	ms := func(key string) time.Duration {
		return time.Duration(v.GetInt(key)) * time.Millisecond
	}
	return &Config{
		HTTPPort:         v.GetInt("HTTP_PORT"),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		OpenAIAPIKey:     v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:    v.GetString("OPENAI_BASE_URL"),
		ClaudeAPIKey:     v.GetString("CLAUDE_API_KEY"),
		GPTModel:         v.GetString("GPT_MODEL"),
		ClaudeModel:      v.GetString("CLAUDE_MODEL"),
		LLMTimeout:       ms("LLM_TIMEOUT_MS"),
		Mode:             strings.ToUpper(v.GetString("GOGO_MODE")),
		JWTSecret:        v.GetString("AUTH_JWT_SECRET"),
		JWTIssuer:        v.GetString("AUTH_JWT_ISSUER"),
		JWTAudience:      v.GetString("AUTH_JWT_AUDIENCE"),
		ChatTimeout:      ms("CHAT_TIMEOUT_MS"),
		AdminTimeout:     ms("ADMIN_TIMEOUT_MS"),
		RateLimitWindow:  ms("RATE_LIMIT_WINDOW_MS"),
		ContextLimit:     v.GetInt("CONTEXT_LIMIT"),
		MaxMessageLength: v.GetInt("MAX_MESSAGE_LENGTH"),
		WSPingInterval:   ms("WS_PING_INTERVAL_MS"),
		WSWriteTimeout:   ms("WS_WRITE_TIMEOUT_MS"),
		WSReadTimeout:    ms("WS_READ_TIMEOUT_MS"),
		WSMaxMessageSize: v.GetInt64("WS_MAX_MESSAGE_SIZE"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFile:          v.GetString("LOG_FILE"),
	}
}

// Default returns the configuration with every default applied and nothing
// read from the environment.
func Default() *Config {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	return Load(v)
}

// MockMode reports whether mock model backends are selected.
func (c *Config) MockMode() bool {
	return c.Mode == ModeMock
}

// Validate reports required keys that are missing.
func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "AUTH_JWT_SECRET")
	}
	if !c.MockMode() {
		if c.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
		if c.ClaudeAPIKey == "" {
			missing = append(missing, "CLAUDE_API_KEY")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrConfiguration, strings.Join(missing, ", "))
	}
	if c.MaxMessageLength <= 0 || c.ContextLimit <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("%w: MAX_MESSAGE_LENGTH, CONTEXT_LIMIT and RATE_LIMIT_WINDOW_MS must be positive", ErrConfiguration)
	}
	return nil
}
