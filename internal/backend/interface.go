package backend

import (
	"context"

	"budgetbook/internal/ledger"
	"budgetbook/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the stores built for one configuration.
type BackendResult struct {
	Records     ledger.RecordStore
	Credentials *storage.CredentialStore
	Cleanup     CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File backend
	LedgerFile string

	// SQLite backend
	SQLiteDBPath string

	// Shared by both backends
	CredentialsFile string
	Passphrase      string
	Salt            string

	// OnSkip, if set, receives every line dropped while loading, labelled
	// with the store it came from ("records" or "credentials").
	OnSkip func(store, reason string)
}

// BackendType represents the type of backend
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
