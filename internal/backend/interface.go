// Package backend builds the table backend a session talks to. The
// same session code runs against Google Sheets, a local SQLite file or
// an in-memory store; this package picks one from configuration and
// wires up the resources it needs.
package backend

import (
	"context"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/sheets"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/storage"
)

// CleanupFunc releases resources owned by a backend.
type CleanupFunc func() error

// BackendResult bundles the built backend with the resources created
// alongside it.
//
// Local is the SQLite repository for snapshots and recurrence rules.
// For the sqlite backend it is the same repository the backend writes
// through to, so the session must not persist to it a second time. For
// the memory backend it is nil; nothing is kept on disk.
type BackendResult struct {
	Backend sheets.Backend
	SheetID string
	Local   *storage.SQLiteRepository
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds what backend creation needs, independent of where the
// values came from.
type Config struct {
	Type BackendType

	// SQLite file path, used directly by the sqlite backend and as the
	// snapshot store for the sheets backend.
	SQLiteDBPath string

	// Google Sheets specific.
	SpreadsheetID string

	// Optional import file the memory backend loads at startup.
	SeedFile string
}

// BackendType represents the type of backend.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer.
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid.
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
