package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dompet/internal/log"
	"dompet/internal/storage"
	"dompet/internal/storage/memory"
	"dompet/internal/storage/sqlstore"
)

const defaultConnectTimeout = 10 * time.Second

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger.With(log.FieldComponent, log.ComponentBackend),
	}
}

// Open implements Factory.Open
func (f *DefaultFactory) Open(ctx context.Context, config Config) (storage.Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := config.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch config.Type {
	case SQLiteBackend:
		s, err := sqlstore.OpenSQLite(ctx, config.StoreURI)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.StoreURI)
		return s, nil
	case PostgresBackend:
		s, err := sqlstore.OpenPostgres(ctx, config.StoreURI)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return s, nil
	case MemoryBackend:
		f.logger.Warn("Initialized memory backend, data will not survive a restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// Handle implements Factory.Handle. The connection is opened on first use
// so the process can start while the store is still unreachable.
func (f *DefaultFactory) Handle(config Config) *storage.Handle {
	return storage.NewHandle(config.Type.String(), func(ctx context.Context) (storage.Store, error) {
		// Detach from the triggering request; its deadline should not cut
		// a connection other callers are waiting on.
		return f.Open(context.WithoutCancel(ctx), config)
	})
}
