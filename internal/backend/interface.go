// Package backend builds the income and expense stores for the configured
// storage backend.
package backend

import (
	"context"

	"bilancio/internal/core"
	"bilancio/internal/store"
)

// Stores maps each collection to its store.
type Stores map[core.Kind]store.RecordStore

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Close adapts the cleanup to io.Closer.
func (f CleanupFunc) Close() error {
	if f == nil {
		return nil
	}
	return f()
}

// ReadyFunc reports whether the backend can serve requests.
type ReadyFunc func(ctx context.Context) error

// BackendResult contains the stores and optional lifecycle hooks.
type BackendResult struct {
	Stores  Stores
	Cleanup CleanupFunc
	Ready   ReadyFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	CSVBackend    BackendType = "csv"
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, MemoryBackend, SQLiteBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
