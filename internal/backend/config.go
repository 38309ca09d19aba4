package backend

import (
	"fmt"
	"time"

	"dompet/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type           BackendType
	StoreURI       string // file path for sqlite, URL for postgres
	ConnectTimeout time.Duration
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:           backendType,
		StoreURI:       appConfig.StoreURI,
		ConnectTimeout: appConfig.StoreConnectTimeout,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.StoreURI == "" {
			return fmt.Errorf("database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.StoreURI == "" {
			return fmt.Errorf("connection URL is required for postgres backend")
		}
	}

	return nil
}
