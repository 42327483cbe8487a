package backend

import (
	"context"

	"finanzas/internal/storage"
)

// CleanupFunc releases whatever the backend opened.
type CleanupFunc func() error

// BackendResult is a ready store plus its cleanup. Cleanup may be nil.
type BackendResult struct {
	Type    BackendType
	Store   storage.Store
	Cleanup CleanupFunc
}

// Close runs Cleanup when there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates stores based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	CreateMirror(ctx context.Context, config Config) (storage.Store, error)
}

// Config holds what the factory needs to open any backend.
type Config struct {
	Type BackendType

	// sqlite
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleStorageSheetName   string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientJSON    string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenJSON     string
	GoogleOAuthTokenFile     string

	// memory seed files
	DataDirectory string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
