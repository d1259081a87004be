package memory

import (
	"context"
	"os"
	"sync"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/importer"
	ports "github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/sheets"
)

// Store is an in-memory stand-in for the remote sheet backend. It keeps
// one table per sheet ID and can be forced to fail, which is how tests
// exercise degraded sessions.
type Store struct {
	mu     sync.Mutex
	tables map[string][]core.Transaction
	err    error
}

var _ ports.Backend = (*Store)(nil)

func New() *Store {
	return &Store{tables: map[string][]core.Transaction{}}
}

// NewSeeded starts a store with the given table under sheetID.
func NewSeeded(sheetID string, rows []core.Transaction) *Store {
	s := New()
	s.tables[sheetID] = append([]core.Transaction(nil), rows...)
	return s
}

// NewFromFile seeds a store from a local import file so the memory
// backend starts with demo data. Unreadable files yield an empty store.
func NewFromFile(path, sheetID string) *Store {
	s := New()
	f, err := os.Open(path)
	if err != nil {
		return s
	}
	defer f.Close()
	res, err := importer.Read(path, f)
	if err != nil || res == nil {
		return s
	}
	s.tables[sheetID] = res.Rows
	return s
}

// SetErr makes every subsequent call fail with err. Passing nil
// restores normal operation.
func (s *Store) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Store) ReadAll(_ context.Context, sheetID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]core.Transaction(nil), s.tables[sheetID]...), nil
}

func (s *Store) WriteAll(_ context.Context, sheetID string, rows []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.tables[sheetID] = append([]core.Transaction(nil), rows...)
	return nil
}

func (s *Store) Probe(_ context.Context, sheetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.tables[sheetID]; !ok {
		s.tables[sheetID] = nil
	}
	return nil
}

// Rows returns a copy of the table under sheetID, for assertions.
func (s *Store) Rows(sheetID string) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.tables[sheetID]...)
}
