package adapters

import (
	"context"
	"errors"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/sheets"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/storage"
)

// SQLiteBackend adapts the snapshot repository to the sheet ports so a
// session can run fully local, with the database standing in for the
// remote spreadsheet. The sheet ID is accepted for interface
// compatibility and ignored; local mode has exactly one table.
type SQLiteBackend struct {
	repo *storage.SQLiteRepository
}

var _ sheets.Backend = (*SQLiteBackend)(nil)

func NewSQLiteBackend(repo *storage.SQLiteRepository) *SQLiteBackend {
	return &SQLiteBackend{repo: repo}
}

func (b *SQLiteBackend) ReadAll(ctx context.Context, _ string) ([]core.Transaction, error) {
	rows, _, err := b.repo.LoadSnapshot(ctx)
	if errors.Is(err, storage.ErrNoSnapshot) {
		return nil, nil
	}
	return rows, err
}

func (b *SQLiteBackend) WriteAll(ctx context.Context, _ string, rows []core.Transaction) error {
	version := int64(1)
	if meta, err := b.repo.SnapshotInfo(ctx); err == nil {
		version = meta.Version + 1
	} else if !errors.Is(err, storage.ErrNoSnapshot) {
		return err
	}
	return b.repo.SaveSnapshot(ctx, rows, version)
}

func (b *SQLiteBackend) Probe(ctx context.Context, _ string) error {
	return b.repo.Ping(ctx)
}
