package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/adapters"
	gsheet "github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/sheets/google"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/sheets/memory"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/storage"
)

// Tables that never leave the process still need a key for the sheet
// map and the snapshot metadata.
const localSheetID = "local"

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend.
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

// createSQLiteBackend serves the table straight from the local
// database. The repository doubles as the rule store, so it is exposed
// as Local too; the session must not snapshot into it on top of the
// backend writes.
func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: adapters.NewSQLiteBackend(repo),
		SheetID: localSheetID,
		Local:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot store: %w", err)
	}

	f.logger.Info("initialized Google Sheets backend",
		"spreadsheet_id", config.SpreadsheetID,
		"snapshot_db", config.SQLiteDBPath)

	return &BackendResult{
		Backend: cli,
		SheetID: config.SpreadsheetID,
		Local:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	var store *memory.Store
	if config.SeedFile != "" {
		store = memory.NewFromFile(config.SeedFile, localSheetID)
		f.logger.Info("initialized memory backend from seed file", "seed_file", config.SeedFile)
	} else {
		store = memory.New()
		f.logger.Info("initialized memory backend")
	}

	return &BackendResult{
		Backend: store,
		SheetID: localSheetID,
		Cleanup: nil,
	}, nil
}
