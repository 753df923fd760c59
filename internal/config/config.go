package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Backends accepted in DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

const minSecretLen = 16

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// AMQP. An empty URL keeps change notifications in-process.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Sessions
	JWTSecret      string
	SessionTTL     time.Duration
	SessionIdleTTL time.Duration
	MaxSessions    int

	// Logging
	LogLevel  string
	LogFormat string

	// Google Sheets mirror (worker only)
	GoogleSpreadsheetID string
	GoogleSheetName     string
	MirrorInterval      time.Duration
	MirrorBatchSize     int
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		DataBackend: getEnv("DATA_BACKEND", BackendMemory),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/myrupee.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "myrupee.transactions"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "myrupee.sheets-mirror"),

		JWTSecret:      getEnv("JWT_SECRET", ""),
		SessionTTL:     getEnvDuration("SESSION_TTL", 168*time.Hour),
		SessionIdleTTL: getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
		MaxSessions:    getEnvInt("MAX_SESSIONS", 1000),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		MirrorInterval:      getEnvDuration("MIRROR_INTERVAL", 5*time.Minute),
		MirrorBatchSize:     getEnvInt("MIRROR_BATCH_SIZE", 50),
	}
}

// Validate checks the server configuration and reports every problem at
// once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case BackendMemory:
	case BackendSQLite:
		errors = append(errors, c.validateSQLite()...)
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v",
			c.DataBackend, []string{BackendMemory, BackendSQLite}))
	}

	errors = append(errors, c.validateAMQP()...)

	if len(c.JWTSecret) < minSecretLen {
		errors = append(errors, fmt.Sprintf("JWT_SECRET must be at least %d characters", minSecretLen))
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.SessionIdleTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session idle TTL %v: must be at least 1 minute", c.SessionIdleTTL))
	}
	if c.MaxSessions < 1 {
		errors = append(errors, fmt.Sprintf("invalid max sessions %d: must be at least 1", c.MaxSessions))
	}

	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateWorker checks what the sheets mirror worker needs.
func (c *Config) ValidateWorker() error {
	var errors []string

	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required for the worker")
	}
	errors = append(errors, c.validateAMQP()...)
	if c.AMQPQueue == "" {
		errors = append(errors, "AMQP queue name cannot be empty for the worker")
	}
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty for the worker")
	} else {
		errors = append(errors, c.validateSQLite()...)
	}
	if c.GoogleSpreadsheetID != "" && c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
	}
	if c.MirrorInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at least 1 second", c.MirrorInterval))
	}
	if c.MirrorBatchSize < 1 || c.MirrorBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid mirror batch size %d: must be between 1 and 1000", c.MirrorBatchSize))
	}
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) validateSQLite() []string {
	if c.SQLiteDBPath == "" {
		return []string{"SQLite database path cannot be empty when using sqlite backend"}
	}
	dir := filepath.Dir(c.SQLiteDBPath)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return []string{fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err)}
			}
		}
	}
	return nil
}

func (c *Config) validateAMQP() []string {
	if c.AMQPURL == "" {
		return nil
	}
	var errors []string
	if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
	} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
	}
	if c.AMQPExchange == "" {
		errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	return errors
}

func (c *Config) validateLogging() []string {
	var errors []string
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}
	return errors
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
