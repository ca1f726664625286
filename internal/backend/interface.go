package backend

import (
	"context"

	"myfinance/internal/storage"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// HealthChecker is implemented by backends that can report readiness.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// BackendResult contains the blob store and optional cleanup function
type BackendResult struct {
	Store   storage.BlobStore
	Cleanup CleanupFunc
}

// Ready reports whether the backend can serve requests. Stores without a
// health check are always ready.
func (r *BackendResult) Ready(ctx context.Context) error {
	if hc, ok := r.Store.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// Close runs the cleanup function, if any.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates blob stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific; snapshots found here seed the store
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
