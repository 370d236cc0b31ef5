package backend

import (
	"context"
	"fmt"

	"weekbudget/internal/ledger/memory"
	"weekbudget/internal/ledger/sqlite"
	"weekbudget/internal/ledger/ynab"
	"weekbudget/internal/log"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case YNABBackend:
		return f.createYNABBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createYNABBackend(ctx context.Context, config Config) (*Result, error) {
	opts := []ynab.Option{ynab.WithRequestsPerHour(config.RequestsPerHour)}
	if config.APIBaseURL != "" {
		opts = append(opts, ynab.WithBaseURL(config.APIBaseURL))
	}
	client, err := ynab.New(config.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize YNAB client: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized YNAB backend",
		"base_url", config.APIBaseURL,
		"requests_per_hour", config.RequestsPerHour)

	return &Result{Reader: client}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*Result, error) {
	store, err := sqlite.Open(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite snapshot: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", log.FieldPath, config.SQLiteDBPath)

	return &Result{
		Reader:  store,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*Result, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store, err := memory.NewFromFiles(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory backend from %s: %w", dataDir, err)
	}

	f.logger.InfoContext(ctx, "Initialized memory backend", "data_directory", dataDir)

	return &Result{Reader: store}, nil
}
