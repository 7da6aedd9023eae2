// Package sheetfile stores the sheet channel partition as a CSV ledger with
// one row per todo, editable in any spreadsheet tool.
package sheetfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/pkg/fsutil"
)

// Header is the column layout written to new sheets.
var Header = []string{"ID", "Todo Item", "Status", "Date Added", "Due Date", "Priority", "Notes", "Sender", "Origin", "Completed At"}

const (
	colID          = "ID"
	colItem        = "Todo Item"
	colStatus      = "Status"
	colAdded       = "Date Added"
	colDue         = "Due Date"
	colPriority    = "Priority"
	colNotes       = "Notes"
	colSender      = "Sender"
	colOrigin      = "Origin"
	colCompletedAt = "Completed At"
)

// timeLayouts are accepted when reading dates; the first is used for writing.
var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// Store implements todo.Store for the sheet channel.
type Store struct {
	path string
	mu   sync.RWMutex
}

// NewStore creates a CSV-backed store at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// List returns every row in sheet order.
func (s *Store) List(ctx context.Context) ([]todo.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todos, err := s.load()
	if err != nil {
		return nil, &todo.StoreError{Op: "list", Channel: todo.ChannelSheet, Err: err}
	}
	return todos, nil
}

// Append adds t as the last row.
func (s *Store) Append(ctx context.Context, t todo.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := s.load()
	if err != nil {
		return &todo.StoreError{Op: "append", Channel: todo.ChannelSheet, Err: err}
	}
	for _, existing := range todos {
		if existing.ID == t.ID {
			return &todo.StoreError{Op: "append", Channel: todo.ChannelSheet, Err: fmt.Errorf("duplicate id %d", t.ID)}
		}
	}

	if err := s.save(append(todos, t)); err != nil {
		return &todo.StoreError{Op: "append", Channel: todo.ChannelSheet, Err: err}
	}
	return nil
}

// Update rewrites the row with t.ID. Returns todo.ErrNotFound if absent.
func (s *Store) Update(ctx context.Context, t todo.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := s.load()
	if err != nil {
		return &todo.StoreError{Op: "update", Channel: todo.ChannelSheet, Err: err}
	}

	found := false
	for i := range todos {
		if todos[i].ID == t.ID {
			todos[i] = t
			found = true
			break
		}
	}
	if !found {
		return todo.ErrNotFound
	}

	if err := s.save(todos); err != nil {
		return &todo.StoreError{Op: "update", Channel: todo.ChannelSheet, Err: err}
	}
	return nil
}

func (s *Store) load() ([]todo.Todo, error) {
	data, err := fsutil.ReadFileIfExists(s.path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

func (s *Store) save(todos []todo.Todo) error {
	data, err := Encode(todos)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(s.path, data, 0o644)
}

// Decode parses sheet CSV. Columns are located by header name so hand-edited
// sheets may reorder or omit optional columns; ID and Todo Item are required.
// Blank rows are skipped.
func Decode(data []byte) ([]todo.Todo, error) {
	todos := []todo.Todo{}
	if len(bytes.TrimSpace(data)) == 0 {
		return todos, nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colID, colItem} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}

	get := func(row []string, col string) string {
		i, ok := cols[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for n, row := range records[1:] {
		line := n + 2
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}

		id, err := strconv.Atoi(get(row, colID))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid id %q", line, get(row, colID))
		}

		t := todo.Todo{
			ID:          id,
			Channel:     todo.ChannelSheet,
			Origin:      todo.ChannelSheet,
			Description: get(row, colItem),
			Status:      todo.Status(strings.ToLower(get(row, colStatus))),
			DueDate:     get(row, colDue),
			Priority:    get(row, colPriority),
			Notes:       get(row, colNotes),
			Sender:      get(row, colSender),
		}
		if t.Status == "" {
			t.Status = todo.StatusPending
		}
		if !t.Status.IsValid() {
			return nil, fmt.Errorf("line %d: invalid status %q", line, get(row, colStatus))
		}

		if origin := get(row, colOrigin); origin != "" {
			ch, err := todo.ParseChannel(origin)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			t.Origin = ch
		}

		if added := get(row, colAdded); added != "" {
			ts, err := parseTime(added)
			if err != nil {
				return nil, fmt.Errorf("line %d: date added: %w", line, err)
			}
			t.CreatedAt = ts
		}

		if done := get(row, colCompletedAt); done != "" {
			ts, err := parseTime(done)
			if err != nil {
				return nil, fmt.Errorf("line %d: completed at: %w", line, err)
			}
			t.CompletedAt = &ts
		}
		// Hand-edited rows may flip Status without a timestamp.
		if t.Status == todo.StatusCompleted && t.CompletedAt == nil {
			ts := t.CreatedAt
			t.CompletedAt = &ts
		}
		if t.Status == todo.StatusPending {
			t.CompletedAt = nil
		}

		todos = append(todos, t)
	}

	return todos, nil
}

// Encode renders todos as sheet CSV with Header.
func Encode(todos []todo.Todo) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Header); err != nil {
		return nil, err
	}

	for _, t := range todos {
		completed := ""
		if t.CompletedAt != nil {
			completed = t.CompletedAt.Format(timeLayouts[0])
		}
		added := ""
		if !t.CreatedAt.IsZero() {
			added = t.CreatedAt.Format(timeLayouts[0])
		}
		origin := t.Origin
		if origin == "" {
			origin = todo.ChannelSheet
		}

		row := []string{
			strconv.Itoa(t.ID),
			t.Description,
			string(t.Status),
			added,
			t.DueDate,
			t.Priority,
			t.Notes,
			t.Sender,
			string(origin),
			completed,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
