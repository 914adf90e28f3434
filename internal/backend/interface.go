// Package backend builds the expense repository selected by DATA_BACKEND.
package backend

import (
	"context"
	"time"

	"expensecart/internal/catalog"
)

// BackendType identifies a repository implementation.
type BackendType string

const (
	RemoteBackend BackendType = "remote"
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
)

func (t BackendType) String() string {
	return string(t)
}

// IsValid reports whether t is one of the known backends.
func (t BackendType) IsValid() bool {
	switch t {
	case RemoteBackend, MemoryBackend, SQLiteBackend, SheetsBackend:
		return true
	}
	return false
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// PingFunc reports whether the backend is reachable.
type PingFunc func(ctx context.Context) error

// BackendResult contains the repository and its lifecycle hooks. Ping and
// Cleanup are never nil.
type BackendResult struct {
	Type       BackendType
	Repository catalog.Repository
	Ping       PingFunc
	Cleanup    CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// remote
	ExpensesAPIURL     string
	ExpensesCollection string
	RemoteTimeout      time.Duration

	// sqlite
	SQLiteDBPath string

	// memory; empty means the built-in seed
	MemorySeedFile string

	// sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}
