package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hebbarp/todo-management/internal/core/synclog"
	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/pkg/fsutil"
)

// SyncLogStore implements todo.SyncLogStore using a JSON file.
type SyncLogStore struct {
	path string
	mu   sync.RWMutex
}

// NewSyncLogStore creates a sync log store at the given path.
func NewSyncLogStore(path string) *SyncLogStore {
	return &SyncLogStore{path: path}
}

// Load returns the persisted log. A missing file is an empty log.
func (s *SyncLogStore) Load(ctx context.Context) (synclog.Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, err := s.load()
	if err != nil {
		return synclog.Log{}, &todo.StoreError{Op: "sync log load", Err: err}
	}
	return l, nil
}

// Append adds entry, pruning old entries to stay within maxEntries.
func (s *SyncLogStore) Append(ctx context.Context, entry synclog.Entry, maxEntries int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.load()
	if err != nil {
		return &todo.StoreError{Op: "sync log append", Err: err}
	}

	l.Append(entry, maxEntries)

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return &todo.StoreError{Op: "sync log append", Err: err}
	}
	if err := fsutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return &todo.StoreError{Op: "sync log append", Err: err}
	}
	return nil
}

func (s *SyncLogStore) load() (synclog.Log, error) {
	data, err := fsutil.ReadFileIfExists(s.path)
	if err != nil {
		return synclog.Log{}, err
	}
	if len(data) == 0 {
		return synclog.Log{}, nil
	}

	var l synclog.Log
	if err := json.Unmarshal(data, &l); err != nil {
		return synclog.Log{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return l, nil
}
