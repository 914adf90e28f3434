package backend

import (
	"context"
	"fmt"
	"log/slog"

	"expensecart/internal/repository/memory"
	"expensecart/internal/repository/remote"
	"expensecart/internal/repository/sheets"
	"expensecart/internal/repository/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

func noPing(context.Context) error { return nil }

func noCleanup() error { return nil }

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case RemoteBackend:
		res, err = f.createRemoteBackend(config)
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case SheetsBackend:
		res, err = f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		res, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}
	res.Type = config.Type
	return res, nil
}

func (f *DefaultFactory) createRemoteBackend(config Config) (*BackendResult, error) {
	client, err := remote.NewClient(nil, config.ExpensesAPIURL, config.ExpensesCollection, config.RemoteTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize remote expenses client: %w", err)
	}

	f.logger.Info("Initialized remote backend",
		"base_url", client.BasePath.String(),
		"collection", client.Collection,
		"timeout", config.RemoteTimeout)

	return &BackendResult{
		Repository: client,
		Ping:       client.Ping,
		Cleanup:    noCleanup,
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := sqlite.New(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Repository: repo,
		Ping:       repo.Ping,
		Cleanup:    repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	creds := sheets.Credentials{
		JSON: config.GoogleServiceAccountJSON,
		File: config.GoogleServiceAccountFile,
	}
	opt, err := creds.ClientOption(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load Google credentials: %w", err)
	}

	cli, err := sheets.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend",
		"spreadsheet_id", config.GoogleSpreadsheetID,
		"sheet", config.GoogleSheetName)

	return &BackendResult{
		Repository: cli,
		Ping:       noPing,
		Cleanup:    noCleanup,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store, err := memory.NewFromFile(config.MemorySeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory seed: %w", err)
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.MemorySeedFile)

	return &BackendResult{
		Repository: store,
		Ping:       noPing,
		Cleanup:    noCleanup,
	}, nil
}
