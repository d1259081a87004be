package sheets

import (
	"context"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
)

// Ports for the remote spreadsheet backend.
type (
	// TableReader pulls the full transaction table from a remote sheet.
	TableReader interface {
		ReadAll(ctx context.Context, sheetID string) ([]core.Transaction, error)
	}

	// TableWriter replaces the remote sheet contents wholesale. The
	// table is the unit of sync; single-row patches never go remote.
	TableWriter interface {
		WriteAll(ctx context.Context, sheetID string, rows []core.Transaction) error
	}

	// Prober reports whether the backend is reachable. The session
	// checks it once at start and carries the result as a capability
	// flag instead of querying ad hoc.
	Prober interface {
		Probe(ctx context.Context, sheetID string) error
	}

	// Backend is the full remote-sheet capability.
	Backend interface {
		TableReader
		TableWriter
		Prober
	}
)
