package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"github.com/vytor/flashmind/internal/logger"
)

// EnvPrefix marks the environment variables read by Load.
const EnvPrefix = "FLASHMIND_"

type Config struct {
	Addr              string
	DBPath            string
	LogLevel          string
	LogColors         bool
	DuePollInterval   time.Duration
	CountdownInterval time.Duration
	SessionTTL        time.Duration
	WorkerCount       int
	QueueSize         int
	ShutdownTimeout   time.Duration
}

// Flags declares every setting as a command-line flag. Flag defaults are the
// defaults of the whole configuration.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("flashmind", pflag.ContinueOnError)
	fs.String("addr", ":8080", "HTTP listen address")
	fs.String("db-path", "file:flashmind.db", "SQLite database path")
	fs.String("log-level", "INFO", "minimum log level (DEBUG, INFO, WARN, ERROR)")
	fs.Bool("log-colors", true, "colorize log levels")
	fs.Duration("due-poll-interval", 5*time.Second, "how often live sessions look for newly due cards")
	fs.Duration("countdown-interval", time.Second, "refresh cadence suggested to clients while a session waits")
	fs.Duration("session-ttl", 2*time.Hour, "idle time after which a study session is discarded")
	fs.Int("worker-count", 2, "background worker count")
	fs.Int("queue-size", 16, "background job queue size")
	fs.Duration("shutdown-timeout", 30*time.Second, "graceful shutdown timeout")
	return fs
}

// Load reads configuration from a .env file (if present), FLASHMIND_*
// environment variables and args, later sources overriding earlier ones.
func Load(args []string) (Config, error) {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	fs := Flags()
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return Config{}, fmt.Errorf("load flags: %w", err)
	}

	return Config{
		Addr:              k.String("addr"),
		DBPath:            k.String("db-path"),
		LogLevel:          k.String("log-level"),
		LogColors:         k.Bool("log-colors"),
		DuePollInterval:   k.Duration("due-poll-interval"),
		CountdownInterval: k.Duration("countdown-interval"),
		SessionTTL:        k.Duration("session-ttl"),
		WorkerCount:       k.Int("worker-count"),
		QueueSize:         k.Int("queue-size"),
		ShutdownTimeout:   k.Duration("shutdown-timeout"),
	}, nil
}

// envKey maps FLASHMIND_DB_PATH to db-path.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("DB_PATH cannot be empty"))
	}
	if _, ok := logger.LookupLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR (got %q)", c.LogLevel))
	}
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"DUE_POLL_INTERVAL", c.DuePollInterval},
		{"COUNTDOWN_INTERVAL", c.CountdownInterval},
		{"SESSION_TTL", c.SessionTTL},
		{"SHUTDOWN_TIMEOUT", c.ShutdownTimeout},
	} {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive (got %s)", d.name, d.value))
		}
	}
	if c.WorkerCount <= 0 {
		errs = append(errs, fmt.Errorf("WORKER_COUNT must be positive (got %d)", c.WorkerCount))
	}
	if c.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("QUEUE_SIZE must be positive (got %d)", c.QueueSize))
	}
	return errors.Join(errs...)
}
