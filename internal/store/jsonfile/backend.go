package jsonfile

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/internal/store/sheetfile"
)

// Backend lays out every partition under one directory:
//
//	<dir>/chat_todos.json
//	<dir>/email_todos.json
//	<dir>/sheet_todos.csv
//	<dir>/processed_<scope>.json
//	<dir>/sync_log.json
type Backend struct {
	dir string

	mu      sync.Mutex
	stores  map[todo.Channel]todo.Store
	ledgers map[string]*LedgerStore
	syncLog *SyncLogStore
}

// NewBackend creates a file backend rooted at dir.
func NewBackend(dir string) *Backend {
	return &Backend{
		dir:     dir,
		stores:  make(map[todo.Channel]todo.Store),
		ledgers: make(map[string]*LedgerStore),
		syncLog: NewSyncLogStore(filepath.Join(dir, "sync_log.json")),
	}
}

// Dir returns the backend root.
func (b *Backend) Dir() string {
	return b.dir
}

// Store returns the partition for ch. The sheet partition is a CSV ledger; the
// others are JSON arrays. The same instance is returned on every call so its
// lock guards all access to the file.
func (b *Backend) Store(ch todo.Channel) todo.Store {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.stores[ch]; ok {
		return s
	}

	var s todo.Store
	if ch == todo.ChannelSheet {
		s = sheetfile.NewStore(filepath.Join(b.dir, "sheet_todos.csv"))
	} else {
		s = NewTodoStore(filepath.Join(b.dir, fmt.Sprintf("%s_todos.json", ch)), ch)
	}
	b.stores[ch] = s
	return s
}

// Ledger returns the processed-identifier ledger for scope.
func (b *Backend) Ledger(scope string) todo.Ledger {
	b.mu.Lock()
	defer b.mu.Unlock()

	if l, ok := b.ledgers[scope]; ok {
		return l
	}
	l := NewLedgerStore(filepath.Join(b.dir, fmt.Sprintf("processed_%s.json", scope)))
	b.ledgers[scope] = l
	return l
}

// SyncLog returns the sync log store.
func (b *Backend) SyncLog() todo.SyncLogStore {
	return b.syncLog
}

// Close is a no-op; files are closed after every operation.
func (b *Backend) Close() error {
	return nil
}
