package backend

import (
	"context"

	"weekbudget/internal/ledger"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the ledger reader and an optional cleanup function
type Result struct {
	Reader  ledger.Reader
	Cleanup CleanupFunc
}

// Close runs the cleanup function, if any.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates ledger backends based on configuration
type Factory interface {
	// CreateBackend creates a ledger reader based on the provided config
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// YNAB specific
	Token           string
	APIBaseURL      string
	RequestsPerHour int

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	YNABBackend   BackendType = "ynab"
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
	case YNABBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
