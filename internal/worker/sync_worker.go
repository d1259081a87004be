package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/sheets"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/storage"
)

// SyncWorker pushes local table snapshots to the remote sheet. The whole
// table goes out on every push, so a batch of queued messages for the same
// sheet collapses into a single write of the newest snapshot.
type SyncWorker struct {
	storage *storage.SQLiteRepository
	backend sheets.TableWriter
	sheetID string
}

func NewSyncWorker(storage *storage.SQLiteRepository, backend sheets.TableWriter, sheetID string) *SyncWorker {
	return &SyncWorker{
		storage: storage,
		backend: backend,
		sheetID: sheetID,
	}
}

// PushLatest writes the newest local snapshot to the sheet when the sheet
// is behind. Redundant calls are cheap: an already-pushed version returns
// without touching the remote.
func (w *SyncWorker) PushLatest(ctx context.Context) error {
	meta, err := w.storage.SnapshotInfo(ctx)
	if errors.Is(err, storage.ErrNoSnapshot) {
		slog.InfoContext(ctx, "no local snapshot yet, nothing to push")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot info: %w", err)
	}

	state, err := w.storage.SyncState(ctx)
	if err != nil {
		return fmt.Errorf("read sync state: %w", err)
	}

	if state.PushedVersion >= meta.Version {
		slog.InfoContext(ctx, "sheet already has this version, skipping push",
			"version", meta.Version,
			"pushed_version", state.PushedVersion)
		return nil
	}

	rows, meta, err := w.storage.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	if err := w.backend.WriteAll(ctx, w.sheetID, rows); err != nil {
		if markErr := w.storage.MarkPushError(ctx, err.Error()); markErr != nil {
			slog.ErrorContext(ctx, "failed to record push error", "error", markErr)
		}
		return fmt.Errorf("write table to sheet: %w", err)
	}

	if err := w.storage.MarkPushed(ctx, meta.Version, time.Now()); err != nil {
		// The push itself worked, so don't fail the message.
		slog.ErrorContext(ctx, "failed to record pushed version",
			"version", meta.Version,
			"error", err)
	}

	slog.InfoContext(ctx, "pushed table snapshot",
		"sheet_id", w.sheetID,
		"version", meta.Version,
		"rows", len(rows))

	return nil
}

// StartupSyncCheck pushes any snapshot the sheet missed while the worker was
// down. This recovers from lost AMQP messages and worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	meta, err := w.storage.SnapshotInfo(ctx)
	if errors.Is(err, storage.ErrNoSnapshot) {
		slog.InfoContext(ctx, "no local snapshot found on startup")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot info for startup check: %w", err)
	}

	state, err := w.storage.SyncState(ctx)
	if err != nil {
		return fmt.Errorf("read sync state for startup check: %w", err)
	}

	if state.PushedVersion >= meta.Version {
		slog.InfoContext(ctx, "sheet is up to date on startup",
			"version", meta.Version)
		return nil
	}

	slog.InfoContext(ctx, "sheet is behind on startup, pushing",
		"local_version", meta.Version,
		"pushed_version", state.PushedVersion)

	return w.PushLatest(ctx)
}
