package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultSalt is the Argon2id salt used when LEDGER_SALT is unset. Changing
// it makes every existing data file unreadable.
const DefaultSalt = "budgetbook/ledger/v1"

type Config struct {
	// HTTP Server
	Port string

	// Record storage
	DataBackend     string
	LedgerFile      string
	CredentialsFile string
	SQLiteDBPath    string

	// Cipher
	Passphrase string
	Salt       string

	// Classifier
	CategoryTableFile string

	// AMQP change events (optional)
	AMQPURL        string
	AMQPExchange   string
	EventQueueSize int
	PublishTimeout time.Duration

	// Logging
	LogLevel string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:     getEnv("DATA_BACKEND", "file"),
		LedgerFile:      getEnv("LEDGER_FILE", "./data/transactions.dat"),
		CredentialsFile: getEnv("CREDENTIALS_FILE", "./data/users.dat"),
		SQLiteDBPath:    getEnv("SQLITE_DB_PATH", "./data/ledger.db"),

		Passphrase: getEnv("LEDGER_PASSPHRASE", ""),
		Salt:       getEnv("LEDGER_SALT", DefaultSalt),

		CategoryTableFile: getEnv("CATEGORY_TABLE_FILE", ""),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "ledger"),
		EventQueueSize: getEnvInt("EVENT_QUEUE_SIZE", 64),
		PublishTimeout: getEnvDuration("PUBLISH_TIMEOUT", 5*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// ValidBackends lists the accepted DATA_BACKEND values.
var ValidBackends = []string{"file", "sqlite"}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(ValidBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, ValidBackends))
	}

	switch c.DataBackend {
	case "file":
		if c.LedgerFile == "" {
			errors = append(errors, "ledger file path cannot be empty when using file backend")
		} else if err := ensureDir(c.LedgerFile); err != nil {
			errors = append(errors, err.Error())
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if err := ensureDir(c.SQLiteDBPath); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if c.CredentialsFile == "" {
		errors = append(errors, "credentials file path cannot be empty")
	} else if err := ensureDir(c.CredentialsFile); err != nil {
		errors = append(errors, err.Error())
	}

	if strings.TrimSpace(c.Passphrase) == "" {
		errors = append(errors, "LEDGER_PASSPHRASE is required")
	}
	if len(c.Salt) < 8 {
		errors = append(errors, fmt.Sprintf("invalid salt: must be at least 8 bytes, got %d", len(c.Salt)))
	}

	if c.CategoryTableFile != "" {
		if _, err := os.Stat(c.CategoryTableFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("category table file does not exist: %s", c.CategoryTableFile))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.EventQueueSize < 1 || c.EventQueueSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid event queue size %d: must be between 1 and 10000", c.EventQueueSize))
	}
	if c.PublishTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid publish timeout %v: must be positive", c.PublishTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ensureDir creates the parent directory of path when it is missing.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create data directory '%s': %v", dir, err)
		}
	}
	return nil
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
