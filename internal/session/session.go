// Package session owns the live transaction table. It is the table's
// only mutator: HTTP handlers, the recurring-entry materializer and the
// CLI all append, edit and read through one Session. Each mutation
// snapshots the table locally and triggers sync-out; reads run over
// immutable row snapshots, so overview builds never block writers.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/cache"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/importer"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/ledger"
	applog "github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/log"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/report"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/sheets"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/storage"
)

const (
	defaultProbeTimeout   = 5 * time.Second
	defaultRefreshTimeout = 15 * time.Second
	defaultCacheSize      = 256
	defaultCacheTTL       = 5 * time.Minute
)

// Options configures a session. Backend is required, everything else
// has a working zero value.
type Options struct {
	Backend sheets.Backend
	SheetID string

	// Local persists table snapshots and recurrence rules. When nil the
	// session has no fallback table and no durable copy of its own.
	Local *storage.SQLiteRepository

	// Publish announces a new table version to the async sync pipeline.
	// When nil the session writes the backend through inline instead.
	Publish func(ctx context.Context, version int64) error

	// Qualifier marks rows that count as billable events for the
	// average ticket. Nil admits revenue rows.
	Qualifier report.Qualifier

	ProbeTimeout   time.Duration
	RefreshTimeout time.Duration
	CacheSize      int
	CacheTTL       time.Duration
}

// Session carries the loaded table, the backend capability flag and the
// sync status the dashboard shows. Construct with New.
type Session struct {
	backend        sheets.Backend
	sheetID        string
	local          *storage.SQLiteRepository
	publish        func(ctx context.Context, version int64) error
	qualifier      report.Qualifier
	refreshTimeout time.Duration

	overviews *cache.LRUCache[*report.Overview]

	mu    sync.RWMutex
	table *ledger.Table
	// Persisted versions must stay monotonic across restarts, so the
	// version already on disk at startup offsets the in-memory counter.
	base     int64
	capable  bool
	probeErr error
	degraded bool
	lastSync time.Time
	lastErr  string
}

// Status is the sync state the UI and the CLI report.
type Status struct {
	Capable   bool
	Degraded  bool
	Version   int64
	Rows      int
	LastSync  time.Time
	LastError string
}

// ListRequest narrows a row listing. The zero value lists everything.
type ListRequest struct {
	Kind       core.Kind
	Category   string
	CostCenter string
	From, To   core.Date
}

// OverviewRequest narrows the dashboard view. The zero value covers the
// whole table with gap-free period rows.
type OverviewRequest struct {
	Category   string
	CostCenter string
	From, To   core.Date
	FillGaps   bool
}

// New probes the backend once, fixes the capability flag for the
// session lifetime and loads the initial table, falling back to the
// local snapshot when the backend is unreachable.
func New(ctx context.Context, opts Options) (*Session, error) {
	if opts.Backend == nil {
		return nil, errors.New("session requires a backend")
	}

	refreshTimeout := opts.RefreshTimeout
	if refreshTimeout <= 0 {
		refreshTimeout = defaultRefreshTimeout
	}
	probeTimeout := opts.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	cacheSize := opts.CacheSize
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	s := &Session{
		backend:        opts.Backend,
		sheetID:        opts.SheetID,
		local:          opts.Local,
		publish:        opts.Publish,
		qualifier:      opts.Qualifier,
		refreshTimeout: refreshTimeout,
		overviews:      cache.NewLRUCache[*report.Overview](cacheSize, cacheTTL),
		table:          ledger.NewTable(),
	}

	if s.local != nil {
		info, err := s.local.SnapshotInfo(ctx)
		switch {
		case err == nil:
			s.base = info.Version
		case !errors.Is(err, storage.ErrNoSnapshot):
			return nil, fmt.Errorf("reading snapshot state: %w", err)
		}
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	err := s.backend.Probe(probeCtx, s.sheetID)
	cancel()
	s.capable = err == nil
	if err != nil {
		s.probeErr = err
		slog.WarnContext(ctx, "backend probe failed, session starts local-only",
			"sheet_id", s.sheetID,
			"error", err)
	}

	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Refresh pulls the remote table and replaces the local one wholesale.
// When the backend is unreachable it keeps or restores the last known
// table and marks the session degraded; only broken local storage makes
// Refresh fail.
func (s *Session) Refresh(ctx context.Context) error {
	if !s.capable {
		cause := error(core.ErrSyncUnavailable)
		if s.probeErr != nil {
			cause = fmt.Errorf("%w: %v", core.ErrSyncUnavailable, s.probeErr)
		}
		return s.restoreSnapshot(ctx, cause)
	}

	pullCtx, cancel := context.WithTimeout(ctx, s.refreshTimeout)
	rows, err := s.backend.ReadAll(pullCtx, s.sheetID)
	cancel()
	if err != nil {
		slog.WarnContext(ctx, "remote read failed",
			"sheet_id", s.sheetID,
			"error", err)
		s.mu.RLock()
		loaded := s.table.Version() > 0
		s.mu.RUnlock()
		if loaded {
			// Keep serving the table we already have.
			s.noteError(err)
			return nil
		}
		return s.restoreSnapshot(ctx, err)
	}

	s.mu.Lock()
	rep := s.table.Load(rows)
	snapshot, version := s.table.Snapshot(), s.version()
	var saveErr error
	if s.local != nil {
		saveErr = s.local.SaveSnapshot(ctx, snapshot, version)
	}
	s.degraded = false
	s.lastErr = ""
	s.lastSync = time.Now()
	s.mu.Unlock()
	s.overviews.Purge()

	if len(rep.Rejected) > 0 {
		slog.WarnContext(ctx, "remote rows failed validation and were dropped",
			"rejected", len(rep.Rejected),
			"rows", rep.Accepted)
	}
	if saveErr != nil {
		slog.ErrorContext(ctx, "failed to snapshot refreshed table", "error", saveErr)
	}
	slog.InfoContext(ctx, "table refreshed",
		"rows", rep.Accepted,
		"table_version", version,
		"sheet_id", s.sheetID)
	return nil
}

// restoreSnapshot falls back to the last persisted table. cause is what
// made the remote unavailable; it becomes the visible status. Missing
// snapshots leave the current table alone, only a broken local store is
// an error.
func (s *Session) restoreSnapshot(ctx context.Context, cause error) error {
	reason := "remote backend unavailable"
	if cause != nil {
		reason = cause.Error()
	}

	if s.local == nil {
		s.noteError(errors.New(reason))
		slog.WarnContext(ctx, "no local store configured, continuing with current table", "error", reason)
		return nil
	}

	rows, meta, err := s.local.LoadSnapshot(ctx)
	if errors.Is(err, storage.ErrNoSnapshot) {
		s.noteError(errors.New(reason))
		slog.WarnContext(ctx, "no snapshot to restore, continuing with current table", "error", reason)
		return nil
	}
	if err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}

	s.mu.Lock()
	rep := s.table.Load(rows)
	s.degraded = true
	s.lastErr = reason
	s.lastSync = meta.SavedAt
	s.mu.Unlock()
	s.overviews.Purge()

	slog.WarnContext(ctx, "restored table from local snapshot",
		"rows", rep.Accepted,
		"snapshot_version", meta.Version,
		"saved_at", meta.SavedAt,
		"error", reason)
	return nil
}

// Append validates and adds one row, then persists and announces the
// new table version.
func (s *Session) Append(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	added, err := s.table.Append(tx)
	if err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	rows, version := s.table.Snapshot(), s.version()
	err = s.persist(ctx, rows, version)
	s.mu.Unlock()
	if err != nil {
		return core.Transaction{}, err
	}

	if err := s.syncOut(ctx, rows, version); err != nil {
		return core.Transaction{}, err
	}

	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogRowAppended(ctx, added.ID, added.Description, added.Value.String(), added.Category, version)
	return added, nil
}

// Replace swaps the row with the given ID for a validated new one.
func (s *Session) Replace(ctx context.Context, id string, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	updated, err := s.table.Replace(id, tx)
	if err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	rows, version := s.table.Snapshot(), s.version()
	err = s.persist(ctx, rows, version)
	s.mu.Unlock()
	if err != nil {
		return core.Transaction{}, err
	}

	if err := s.syncOut(ctx, rows, version); err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "transaction replaced",
		"transaction_id", updated.ID,
		"replaced_id", id,
		"table_version", version)
	return updated, nil
}

// Remove deletes the row with the given ID.
func (s *Session) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	if err := s.table.Remove(id); err != nil {
		s.mu.Unlock()
		return err
	}
	rows, version := s.table.Snapshot(), s.version()
	err := s.persist(ctx, rows, version)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := s.syncOut(ctx, rows, version); err != nil {
		return err
	}

	slog.InfoContext(ctx, "transaction removed",
		"transaction_id", id,
		"table_version", version)
	return nil
}

// Import parses an uploaded file and lands every accepted row under a
// single version bump. Row-scoped failures never abort the batch; the
// result carries them and Result.Err reports the partial failure.
func (s *Session) Import(ctx context.Context, filename string, src io.Reader) (*importer.Result, error) {
	res, err := importer.Read(filename, src)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		slog.WarnContext(ctx, "import produced no rows",
			"file", filename,
			"rejected", len(res.Rejected))
		return res, nil
	}

	s.mu.Lock()
	// Rows were already validated by the importer.
	s.table.AppendAll(res.Rows)
	rows, version := s.table.Snapshot(), s.version()
	err = s.persist(ctx, rows, version)
	s.mu.Unlock()
	if err != nil {
		return res, err
	}

	if err := s.syncOut(ctx, rows, version); err != nil {
		return res, err
	}

	slog.InfoContext(ctx, "file imported",
		"file", filename,
		"rows", res.Accepted,
		"rejected", len(res.Rejected),
		"table_version", version)
	return res, nil
}

// Get returns the row with the given ID.
func (s *Session) Get(id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Get(id)
}

// List returns the rows matching the request, in table order.
func (s *Session) List(req ListRequest) []core.Transaction {
	s.mu.RLock()
	view := s.table.Filter(listPredicates(req)...)
	s.mu.RUnlock()
	return view.Rows()
}

// Overview returns the dashboard data for the requested view, cached
// per table version and filter set.
func (s *Session) Overview(ctx context.Context, req OverviewRequest) (*report.Overview, error) {
	s.mu.RLock()
	view := s.table.Filter(listPredicates(ListRequest{
		Category:   req.Category,
		CostCenter: req.CostCenter,
		From:       req.From,
		To:         req.To,
	})...)
	version := s.version()
	s.mu.RUnlock()

	key := overviewKey(version, req)
	if o, ok := s.overviews.Get(key); ok {
		return o, nil
	}

	o, err := report.BuildOverview(ctx, view, s.qualifier, req.FillGaps)
	if err != nil {
		return nil, err
	}
	s.overviews.Set(key, o)
	return o, nil
}

// Status reports the sync state for the dashboard and the CLI.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Capable:   s.capable,
		Degraded:  s.degraded,
		Version:   s.version(),
		Rows:      s.table.Len(),
		LastSync:  s.lastSync,
		LastError: s.lastErr,
	}
}

// Push writes the current table to the backend immediately, bypassing
// any async pipeline. Operator-triggered.
func (s *Session) Push(ctx context.Context) error {
	if !s.capable {
		return fmt.Errorf("%w: backend was unreachable at session start", core.ErrSyncUnavailable)
	}

	s.mu.RLock()
	rows, version := s.table.Snapshot(), s.version()
	s.mu.RUnlock()

	if err := s.writeThrough(ctx, rows, version); err != nil {
		return err
	}
	slog.InfoContext(ctx, "table pushed",
		"rows", len(rows),
		"table_version", version,
		"sheet_id", s.sheetID)
	return nil
}

// OverviewCache exposes the overview cache for expiry sweeps.
func (s *Session) OverviewCache() *cache.LRUCache[*report.Overview] {
	return s.overviews
}

// persist saves the table snapshot. Callers hold mu so snapshot writes
// land in version order. The in-memory table keeps the mutation even
// when the save fails; the next successful persist writes the whole
// table again, so the snapshot catches up on its own.
func (s *Session) persist(ctx context.Context, rows []core.Transaction, version int64) error {
	s.overviews.Purge()
	if s.local == nil {
		return nil
	}
	if err := s.local.SaveSnapshot(ctx, rows, version); err != nil {
		s.degraded = true
		s.lastErr = err.Error()
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// syncOut announces a new table version downstream. With a publisher
// wired the sheet is written asynchronously by the worker; otherwise
// the session writes the backend through inline.
func (s *Session) syncOut(ctx context.Context, rows []core.Transaction, version int64) error {
	if s.publish != nil {
		if err := s.publish(ctx, version); err != nil {
			// The snapshot is saved; the worker's poll loop catches the
			// sheet up without this message.
			slog.WarnContext(ctx, "failed to publish sync message",
				"table_version", version,
				"error", err)
		}
		return nil
	}

	if !s.capable {
		return nil
	}

	if err := s.writeThrough(ctx, rows, version); err != nil {
		if s.local != nil {
			slog.WarnContext(ctx, "backend write failed, keeping local copy",
				"table_version", version,
				"error", err)
			return nil
		}
		return err
	}
	return nil
}

// writeThrough pushes rows to the backend inline and records the push.
func (s *Session) writeThrough(ctx context.Context, rows []core.Transaction, version int64) error {
	writeCtx, cancel := context.WithTimeout(ctx, s.refreshTimeout)
	defer cancel()
	if err := s.backend.WriteAll(writeCtx, s.sheetID, rows); err != nil {
		s.noteError(err)
		return fmt.Errorf("%w: %v", core.ErrSyncUnavailable, err)
	}
	s.noteSync()

	if s.local != nil {
		if err := s.local.MarkPushed(ctx, version, time.Now()); err != nil {
			slog.WarnContext(ctx, "failed to record push",
				"table_version", version,
				"error", err)
		}
	}
	return nil
}

func (s *Session) noteError(err error) {
	s.mu.Lock()
	s.degraded = true
	s.lastErr = err.Error()
	s.mu.Unlock()
}

func (s *Session) noteSync() {
	s.mu.Lock()
	s.degraded = false
	s.lastErr = ""
	s.lastSync = time.Now()
	s.mu.Unlock()
}

// version reports the durable table version. Callers hold mu.
func (s *Session) version() int64 {
	return s.base + int64(s.table.Version())
}

func listPredicates(req ListRequest) []ledger.Predicate {
	var preds []ledger.Predicate
	if req.Kind != "" {
		preds = append(preds, ledger.ByKind(req.Kind))
	}
	if strings.TrimSpace(req.Category) != "" {
		preds = append(preds, ledger.ByCategory(req.Category))
	}
	if strings.TrimSpace(req.CostCenter) != "" {
		preds = append(preds, ledger.ByCostCenter(req.CostCenter))
	}
	if req.From.Known() || req.To.Known() {
		preds = append(preds, ledger.ByDateRange(req.From, req.To))
	}
	return preds
}

func overviewKey(version int64, req OverviewRequest) string {
	return fmt.Sprintf("%d|%s|%s|%s|%s|%t",
		version,
		strings.ToLower(strings.TrimSpace(req.Category)),
		strings.ToLower(strings.TrimSpace(req.CostCenter)),
		dateKey(req.From),
		dateKey(req.To),
		req.FillGaps)
}

func dateKey(d core.Date) string {
	if !d.Known() {
		return ""
	}
	return d.Format("20060102")
}
