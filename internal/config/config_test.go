package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/flashmind/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Addr:              ":8080",
		DBPath:            "test.db",
		LogLevel:          "INFO",
		DuePollInterval:   5 * time.Second,
		CountdownInterval: time.Second,
		SessionTTL:        time.Hour,
		WorkerCount:       2,
		QueueSize:         16,
		ShutdownTimeout:   30 * time.Second,
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_EmptyAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Addr = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ADDR cannot be empty")
}

func TestValidate_EmptyDBPath(t *testing.T) {
	cfg := validConfig()
	cfg.DBPath = " "

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PATH cannot be empty")
}

func TestValidate_LogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		valid bool
	}{
		{name: "invalid level", level: "INVALID", valid: false},
		{name: "empty level", level: "", valid: false},
		{name: "lowercase valid level", level: "debug", valid: true},
		{name: "warn", level: "WARN", valid: true},
		{name: "error", level: "ERROR", valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.LogLevel = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "LOG_LEVEL")
			}
		})
	}
}

func TestValidate_NonPositiveIntervals(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*config.Config)
		expectedError string
	}{
		{"zero poll interval", func(c *config.Config) { c.DuePollInterval = 0 }, "DUE_POLL_INTERVAL"},
		{"negative countdown", func(c *config.Config) { c.CountdownInterval = -time.Second }, "COUNTDOWN_INTERVAL"},
		{"zero session ttl", func(c *config.Config) { c.SessionTTL = 0 }, "SESSION_TTL"},
		{"zero shutdown timeout", func(c *config.Config) { c.ShutdownTimeout = 0 }, "SHUTDOWN_TIMEOUT"},
		{"zero workers", func(c *config.Config) { c.WorkerCount = 0 }, "WORKER_COUNT"},
		{"negative queue", func(c *config.Config) { c.QueueSize = -1 }, "QUEUE_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	err := config.Config{LogLevel: "INVALID"}.Validate()
	require.Error(t, err)

	errStr := err.Error()
	assert.Contains(t, errStr, "ADDR cannot be empty")
	assert.Contains(t, errStr, "DB_PATH cannot be empty")
	assert.Contains(t, errStr, "LOG_LEVEL")
	assert.Contains(t, errStr, "DUE_POLL_INTERVAL")
	assert.Contains(t, errStr, "WORKER_COUNT")
	assert.Contains(t, errStr, "QUEUE_SIZE")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "file:flashmind.db", cfg.DBPath)
	assert.Equal(t, 5*time.Second, cfg.DuePollInterval)
	assert.Equal(t, time.Second, cfg.CountdownInterval)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.LogColors)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("FLASHMIND_ADDR", ":9090")
	t.Setenv("FLASHMIND_DB_PATH", "custom.db")
	t.Setenv("FLASHMIND_DUE_POLL_INTERVAL", "15s")
	t.Setenv("FLASHMIND_LOG_COLORS", "false")

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "custom.db", cfg.DBPath)
	assert.Equal(t, 15*time.Second, cfg.DuePollInterval)
	assert.False(t, cfg.LogColors)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("FLASHMIND_ADDR", ":9090")

	cfg, err := config.Load([]string{"--addr", ":7070", "--worker-count", "4"})
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, 4, cfg.WorkerCount)
}

func TestLoad_UnknownFlag(t *testing.T) {
	_, err := config.Load([]string{"--no-such-flag"})
	assert.Error(t, err)
}
