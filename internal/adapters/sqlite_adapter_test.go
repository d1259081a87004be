package adapters

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/storage"
)

func testBackend(t *testing.T) (*SQLiteBackend, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "backstage.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewSQLiteBackend(repo), repo
}

func TestSQLiteBackendRoundTrip(t *testing.T) {
	backend, repo := testBackend(t)
	ctx := context.Background()

	rows, err := backend.ReadAll(ctx, "ignored")
	if err != nil || rows != nil {
		t.Fatalf("fresh backend read: rows=%v err=%v", rows, err)
	}

	want := []core.Transaction{
		{ID: "a", Kind: core.KindRevenue, Value: decimal.RequireFromString("1500")},
		{ID: "b", Kind: core.KindExpense, Value: decimal.RequireFromString("-200.5")},
	}
	if err := backend.WriteAll(ctx, "ignored", want); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	got, err := backend.ReadAll(ctx, "ignored")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("unexpected rows: %v", got)
	}

	meta, err := repo.SnapshotInfo(ctx)
	if err != nil {
		t.Fatalf("SnapshotInfo: %v", err)
	}
	if meta.Version != 1 {
		t.Errorf("first write version = %d, want 1", meta.Version)
	}

	if err := backend.WriteAll(ctx, "ignored", want[:1]); err != nil {
		t.Fatalf("second WriteAll: %v", err)
	}
	meta, _ = repo.SnapshotInfo(ctx)
	if meta.Version != 2 {
		t.Errorf("second write version = %d, want 2", meta.Version)
	}

	if err := backend.Probe(ctx, "ignored"); err != nil {
		t.Errorf("Probe: %v", err)
	}
}
