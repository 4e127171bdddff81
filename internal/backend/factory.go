package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"balancete/internal/core"
	"balancete/internal/ledgers"
	"balancete/internal/ledgers/memory"
	"balancete/internal/storage"
	"balancete/internal/storage/postgres"
)

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
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case MemoryBackend:
		result = f.createMemoryBackend(config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case PostgresBackend:
		result, err = f.createPostgresBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.SeedDemo && config.Type != MemoryBackend {
		if err := seedDemo(ctx, result.Repository); err != nil {
			result.Cleanup()
			return nil, fmt.Errorf("seed demo ledger: %w", err)
		}
	}
	return result, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) *BackendResult {
	var store *memory.Store
	if config.SeedDemo {
		store = memory.NewWithDemo()
	} else {
		store = memory.New()
	}

	f.logger.Info("Initialized memory backend", "seed_demo", config.SeedDemo)

	return &BackendResult{
		Repository: store,
		Cleanup:    store.Close,
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Repository: repo,
		Cleanup:    repo.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := postgres.New(ctx, config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
	}

	f.logger.Info("Initialized Postgres backend")

	return &BackendResult{
		Repository: repo,
		Cleanup:    repo.Close,
	}, nil
}

// seedDemo stores the demonstration ledger into an empty repository.
func seedDemo(ctx context.Context, repo ledgers.Repository) error {
	existing, err := repo.ListEntities(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	e := core.DemoEntity(time.Now().UTC())
	return repo.SaveLedger(ctx, e, core.DemoLedger(e.ID, e.Name))
}
