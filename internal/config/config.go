package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Store
	DataBackend         string
	StoreURI            string
	StoreConnectTimeout time.Duration
	DefaultUserID       string

	// AMQP; an empty URL disables ledger events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Logging
	LogLevel  string
	LogFormat string

	// Dashboard
	RateLimitPerMinute int
	SummaryCacheTTL    time.Duration
	SummaryCacheSize   int

	// Worker
	NotifyBatchSize int
}

var validBackends = []string{"sqlite", "postgres", "memory"}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:         getEnv("DATA_BACKEND", "sqlite"),
		StoreURI:            getEnv("STORE_URI", ""),
		StoreConnectTimeout: getEnvDuration("STORE_CONNECT_TIMEOUT", 10*time.Second),
		DefaultUserID:       getEnv("DEFAULT_USER_ID", "demo-user"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "dompet"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		SummaryCacheTTL:    getEnvDuration("SUMMARY_CACHE_TTL", 30*time.Second),
		SummaryCacheSize:   getEnvInt("SUMMARY_CACHE_SIZE", 256),

		NotifyBatchSize: getEnvInt("NOTIFY_BATCH_SIZE", 10),
	}

	if cfg.StoreURI == "" && cfg.DataBackend == "sqlite" {
		cfg.StoreURI = "./data/dompet.db"
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

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

	switch c.DataBackend {
	case "sqlite":
		if c.StoreURI == "" {
			errors = append(errors, "STORE_URI cannot be empty when using sqlite backend")
		}
	case "postgres":
		if c.StoreURI == "" {
			errors = append(errors, "STORE_URI is required when using postgres backend")
		} else if u, err := url.Parse(c.StoreURI); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, fmt.Sprintf("invalid STORE_URI '%s': must be a postgres:// URL", redact(c.StoreURI)))
		}
	}

	if c.StoreConnectTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid store connect timeout %v: must be at least 100ms", c.StoreConnectTimeout))
	}

	if strings.TrimSpace(c.DefaultUserID) == "" {
		errors = append(errors, "DEFAULT_USER_ID cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", redact(c.AMQPURL), err))
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

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if c.SummaryCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid summary cache TTL %v: must not be negative", c.SummaryCacheTTL))
	}

	if c.NotifyBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid notify batch size %d: must be at least 1", c.NotifyBatchSize))
	} else if c.NotifyBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid notify batch size %d: must be at most 1000", c.NotifyBatchSize))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// redact hides URL credentials before they reach logs.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
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
