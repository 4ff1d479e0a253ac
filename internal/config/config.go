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

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// Collection scope: records live under <namespace>/<app_id>/users/<user_id>/expenses
	Namespace string
	AppID     string

	// Auth
	AuthToken    string // optional bootstrap token; anonymous sign-in when empty
	AuthAudience string // expected audience when validating the bootstrap token

	// AMQP change fanout (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Status messages
	StatusTTL time.Duration

	// Mirror worker
	MirrorDBPath string
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8081"),
		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/tally.db"),

		Namespace: getEnv("NAMESPACE", "tally"),
		AppID:     getEnv("APP_ID", "default"),

		AuthToken:    getEnv("AUTH_TOKEN", ""),
		AuthAudience: getEnv("AUTH_AUDIENCE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "tally"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "record_changes"),

		StatusTTL: getEnvDuration("STATUS_TTL", 3*time.Second),

		MirrorDBPath: getEnv("MIRROR_DB_PATH", "./data/tally-mirror.db"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"sqlite", "memory"}
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

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Namespace and app id become path segments, so they must not contain separators
	if strings.TrimSpace(c.Namespace) == "" {
		errors = append(errors, "namespace cannot be empty")
	} else if strings.Contains(c.Namespace, "/") {
		errors = append(errors, fmt.Sprintf("invalid namespace '%s': must not contain '/'", c.Namespace))
	}
	if strings.TrimSpace(c.AppID) == "" {
		errors = append(errors, "app id cannot be empty")
	} else if strings.Contains(c.AppID, "/") {
		errors = append(errors, fmt.Sprintf("invalid app id '%s': must not contain '/'", c.AppID))
	}

	// A bootstrap token can only be validated against a known audience
	if c.AuthToken != "" && c.AuthAudience == "" {
		errors = append(errors, "AUTH_AUDIENCE is required when AUTH_TOKEN is provided")
	}

	// Validate AMQP URL if provided
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

	// Validate status message lifetime
	if c.StatusTTL < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid status TTL %v: must be at least 100ms", c.StatusTTL))
	} else if c.StatusTTL > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid status TTL %v: must be at most 1 minute", c.StatusTTL))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
