// Package backend selects and connects the store named by DATA_BACKEND.
package backend

import (
	"context"

	"dompet/internal/storage"
)

// Factory creates stores based on configuration
type Factory interface {
	// Open connects to the configured store, bounded by the connect timeout.
	Open(ctx context.Context, config Config) (storage.Store, error)
	// Handle returns a lazily connecting handle for config.
	Handle(config Config) *storage.Handle
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
