package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	applog "rupeetrack/internal/log"
)

// DefaultMaxContentLength caps request bodies at 16 MiB.
const DefaultMaxContentLength int64 = 16 * 1024 * 1024

type Config struct {
	// HTTP Server
	Port             string
	MaxContentLength int64
	ShutdownTimeout  time.Duration

	// Storage
	DataBackend      string
	TransactionsFile string
	SQLiteDBPath     string
	UploadDir        string

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:             getEnv("PORT", "5000"),
		MaxContentLength: getEnvInt64("MAX_CONTENT_LENGTH", DefaultMaxContentLength),
		ShutdownTimeout:  getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DataBackend:      getEnv("DATA_BACKEND", "file"),
		TransactionsFile: getEnv("TRANSACTIONS_FILE", "transactions.json"),
		SQLiteDBPath:     getEnv("SQLITE_DB_PATH", "./data/rupeetrack.db"),
		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "rupeetrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transactions_recorded"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error listing every problem
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.MaxContentLength < 1 {
		errors = append(errors, fmt.Sprintf("invalid max content length %d: must be positive", c.MaxContentLength))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	validBackends := []string{"file", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "file" && strings.TrimSpace(c.TransactionsFile) == "" {
		errors = append(errors, "transactions file path cannot be empty when using file backend")
	}

	if c.DataBackend == "sqlite" && strings.TrimSpace(c.SQLiteDBPath) == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	if strings.TrimSpace(c.UploadDir) == "" {
		errors = append(errors, "upload directory cannot be empty")
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
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// String renders the effective configuration without secrets.
func (c *Config) String() string {
	amqpURL := ""
	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err == nil {
			amqpURL = u.Redacted()
		}
	}
	lines := []string{
		"PORT=" + c.Port,
		"MAX_CONTENT_LENGTH=" + strconv.FormatInt(c.MaxContentLength, 10),
		"SHUTDOWN_TIMEOUT=" + c.ShutdownTimeout.String(),
		"DATA_BACKEND=" + c.DataBackend,
		"TRANSACTIONS_FILE=" + c.TransactionsFile,
		"SQLITE_DB_PATH=" + c.SQLiteDBPath,
		"UPLOAD_DIR=" + c.UploadDir,
		"AMQP_URL=" + amqpURL,
		"AMQP_EXCHANGE=" + c.AMQPExchange,
		"AMQP_QUEUE=" + c.AMQPQueue,
		"LOG_LEVEL=" + c.LogLevel,
	}
	return strings.Join(lines, "\n")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
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
