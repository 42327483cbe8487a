// Package backend opens the storage.Store selected by DATA_BACKEND.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"finanzas/internal/storage"
	"finanzas/internal/storage/sheets"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// CreateMirror opens the Google Sheets store used as the worker's mirror.
func (f *DefaultFactory) CreateMirror(ctx context.Context, config Config) (storage.Store, error) {
	if err := config.validateSheets(); err != nil {
		return nil, err
	}
	return f.openSheets(ctx, config)
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	store, err := storage.NewSQLiteStore(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Type: SQLiteBackend, Store: store, Cleanup: store.Close}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := f.openSheets(ctx, config)
	if err != nil {
		return nil, err
	}
	f.logger.Info("Initialized Google Sheets backend", "sheet", config.GoogleStorageSheetName)
	return &BackendResult{Type: SheetsBackend, Store: store}, nil
}

func (f *DefaultFactory) openSheets(ctx context.Context, config Config) (*sheets.Store, error) {
	store, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleStorageSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
		OAuthClientJSON: config.GoogleOAuthClientJSON,
		OAuthClientFile: config.GoogleOAuthClientFile,
		OAuthTokenJSON:  config.GoogleOAuthTokenJSON,
		OAuthTokenFile:  config.GoogleOAuthTokenFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets store: %w", err)
	}
	return store, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store, err := storage.NewMemoryStoreFromFiles(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory backend: %w", err)
	}
	f.logger.Info("Initialized memory backend", "data_directory", config.DataDirectory, "seeded_keys", store.Keys())
	return &BackendResult{Type: MemoryBackend, Store: store}, nil
}
