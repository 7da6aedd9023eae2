// Package jsonfile implements the file storage backend: JSON partitions,
// processed-message ledgers, and the sync log, each rewritten atomically.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/pkg/fsutil"
)

// TodoStore implements todo.Store for one channel using a JSON array file.
type TodoStore struct {
	path    string
	channel todo.Channel
	mu      sync.RWMutex
}

// NewTodoStore creates a JSON file store for ch at path.
func NewTodoStore(path string, ch todo.Channel) *TodoStore {
	return &TodoStore{path: path, channel: ch}
}

// Path returns the backing file.
func (s *TodoStore) Path() string {
	return s.path
}

// List returns every todo in insertion order.
func (s *TodoStore) List(ctx context.Context) ([]todo.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todos, err := s.load()
	if err != nil {
		return nil, &todo.StoreError{Op: "list", Channel: s.channel, Err: err}
	}
	return todos, nil
}

// Append adds t to the end of the partition.
func (s *TodoStore) Append(ctx context.Context, t todo.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := s.load()
	if err != nil {
		return &todo.StoreError{Op: "append", Channel: s.channel, Err: err}
	}

	for _, existing := range todos {
		if existing.ID == t.ID {
			return &todo.StoreError{Op: "append", Channel: s.channel, Err: fmt.Errorf("duplicate id %d", t.ID)}
		}
	}

	if err := s.save(append(todos, t)); err != nil {
		return &todo.StoreError{Op: "append", Channel: s.channel, Err: err}
	}
	return nil
}

// Update replaces the todo with t.ID. Returns todo.ErrNotFound if absent.
func (s *TodoStore) Update(ctx context.Context, t todo.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := s.load()
	if err != nil {
		return &todo.StoreError{Op: "update", Channel: s.channel, Err: err}
	}

	idx := -1
	for i := range todos {
		if todos[i].ID == t.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return todo.ErrNotFound
	}

	todos[idx] = t
	if err := s.save(todos); err != nil {
		return &todo.StoreError{Op: "update", Channel: s.channel, Err: err}
	}
	return nil
}

// load reads the partition from disk. A missing or empty file is an empty partition.
func (s *TodoStore) load() ([]todo.Todo, error) {
	data, err := fsutil.ReadFileIfExists(s.path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []todo.Todo{}, nil
	}

	var todos []todo.Todo
	if err := json.Unmarshal(data, &todos); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}

	for i := range todos {
		if todos[i].Channel == "" {
			todos[i].Channel = s.channel
		}
		if todos[i].Origin == "" {
			todos[i].Origin = todos[i].Channel
		}
	}

	return todos, nil
}

// save writes the partition to disk atomically.
func (s *TodoStore) save(todos []todo.Todo) error {
	data, err := json.MarshalIndent(todos, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(s.path, data, 0o644)
}
