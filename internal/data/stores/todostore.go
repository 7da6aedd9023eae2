package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/internal/data/db"
)

// TodoStore implements todo.Store for one channel partition in SQL.
type TodoStore struct {
	db      *db.DB
	channel todo.Channel
}

var _ todo.Store = (*TodoStore)(nil)

// NewTodoStore creates a SQL-backed store for ch.
func NewTodoStore(database *db.DB, ch todo.Channel) *TodoStore {
	return &TodoStore{db: database, channel: ch}
}

const todoColumns = "id, origin, description, status, sender, subject, message_id, priority, due_date, notes, created_at, completed_at"

// List returns every todo of the channel ordered by id, which is insertion order.
func (s *TodoStore) List(ctx context.Context) ([]todo.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE channel = ? ORDER BY id",
		string(s.channel),
	)
	if err != nil {
		return nil, s.storeErr("list", err)
	}
	defer func() { _ = rows.Close() }()

	todos := []todo.Todo{}
	for rows.Next() {
		t, err := s.scan(rows)
		if err != nil {
			return nil, s.storeErr("list", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storeErr("list", err)
	}

	return todos, nil
}

// Append inserts t into the channel partition.
func (s *TodoStore) Append(ctx context.Context, t todo.Todo) error {
	origin := t.Origin
	if origin == "" {
		origin = s.channel
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO todos (channel, `+todoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(s.channel), t.ID, string(origin), t.Description, string(t.Status),
		t.Sender, t.Subject, t.MessageID, t.Priority, t.DueDate, t.Notes,
		t.CreatedAt.UnixNano(), toNullTime(t.CompletedAt),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return s.storeErr("append", fmt.Errorf("duplicate id %d", t.ID))
		}
		return s.storeErr("append", err)
	}
	return nil
}

// Update rewrites the mutable columns of the todo with t.ID.
// Returns todo.ErrNotFound if absent.
func (s *TodoStore) Update(ctx context.Context, t todo.Todo) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE todos
		SET description = ?, status = ?, priority = ?, due_date = ?, notes = ?, completed_at = ?
		WHERE channel = ? AND id = ?`,
		t.Description, string(t.Status), t.Priority, t.DueDate, t.Notes, toNullTime(t.CompletedAt),
		string(s.channel), t.ID,
	)
	if err != nil {
		return s.storeErr("update", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return s.storeErr("update", err)
	}
	if n == 0 {
		return todo.ErrNotFound
	}
	return nil
}

func (s *TodoStore) scan(rows *sql.Rows) (todo.Todo, error) {
	var (
		t           todo.Todo
		origin      string
		status      string
		createdAt   int64
		completedAt sql.NullInt64
	)

	err := rows.Scan(&t.ID, &origin, &t.Description, &status, &t.Sender, &t.Subject,
		&t.MessageID, &t.Priority, &t.DueDate, &t.Notes, &createdAt, &completedAt)
	if err != nil {
		return todo.Todo{}, err
	}

	t.Channel = s.channel
	t.Origin = todo.Channel(origin)
	t.Status = todo.Status(status)
	t.CreatedAt = time.Unix(0, createdAt)
	if completedAt.Valid {
		ts := time.Unix(0, completedAt.Int64)
		t.CompletedAt = &ts
	}
	return t, nil
}

func (s *TodoStore) storeErr(op string, err error) error {
	return &todo.StoreError{Op: op, Channel: s.channel, Err: err}
}

func toNullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}
