package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/pkg/fsutil"
)

// LedgerStore implements todo.Ledger as a JSON array of identifiers.
type LedgerStore struct {
	path string
	mu   sync.Mutex
}

// NewLedgerStore creates a ledger backed by the file at path.
func NewLedgerStore(path string) *LedgerStore {
	return &LedgerStore{path: path}
}

// Seen reports whether id was already recorded.
func (s *LedgerStore) Seen(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.load()
	if err != nil {
		return false, &todo.StoreError{Op: "ledger seen", Err: err}
	}
	return slices.Contains(ids, id), nil
}

// Record stores id; recording an existing id is a no-op.
func (s *LedgerStore) Record(ctx context.Context, id string) error {
	_, err := s.Claim(ctx, id)
	return err
}

// Claim records id and reports whether this call added it.
func (s *LedgerStore) Claim(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.load()
	if err != nil {
		return false, &todo.StoreError{Op: "ledger record", Err: err}
	}
	if slices.Contains(ids, id) {
		return false, nil
	}

	data, err := json.MarshalIndent(append(ids, id), "", "  ")
	if err != nil {
		return false, &todo.StoreError{Op: "ledger record", Err: err}
	}
	if err := fsutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return false, &todo.StoreError{Op: "ledger record", Err: err}
	}
	return true, nil
}

// List returns every recorded id in recording order.
func (s *LedgerStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.load()
	if err != nil {
		return nil, &todo.StoreError{Op: "ledger list", Err: err}
	}
	return ids, nil
}

func (s *LedgerStore) load() ([]string, error) {
	data, err := fsutil.ReadFileIfExists(s.path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []string{}, nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return ids, nil
}
