package jsonfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hebbarp/todo-management/internal/core/synclog"
	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/internal/store/sheetfile"
)

func TestTodoStore(t *testing.T) {
	ctx := context.Background()
	s := NewTodoStore(filepath.Join(t.TempDir(), "chat_todos.json"), todo.ChannelChat)
	now := time.Now().UTC()

	todos, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, todos)

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Append(ctx, todo.Todo{
			ID:          i,
			Channel:     todo.ChannelChat,
			Origin:      todo.ChannelChat,
			Description: fmt.Sprintf("item %d", i),
			Status:      todo.StatusPending,
			CreatedAt:   now,
		}))
	}

	todos, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, todos, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{todos[0].ID, todos[1].ID, todos[2].ID})

	item := todos[1]
	require.True(t, item.Complete(now))
	require.NoError(t, s.Update(ctx, item))

	todos, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, todo.StatusCompleted, todos[1].Status)
	assert.Equal(t, todo.StatusPending, todos[0].Status, "unrelated records untouched")
	assert.Equal(t, todo.StatusPending, todos[2].Status)

	assert.ErrorIs(t, s.Update(ctx, todo.Todo{ID: 42}), todo.ErrNotFound)
}

func TestTodoStore_CorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "email_todos.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewTodoStore(path, todo.ChannelEmail)

	_, err := s.List(ctx)
	var storeErr *todo.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "list", storeErr.Op)
	assert.Equal(t, todo.ChannelEmail, storeErr.Channel)

	err = s.Append(ctx, todo.Todo{ID: 1, Description: "x"})
	require.ErrorAs(t, err, &storeErr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data), "failed writes leave the file untouched")
}

func TestTodoStore_FillsLegacyFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_todos.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1,"description":"legacy","status":"pending"}]`), 0o644))

	todos, err := NewTodoStore(path, todo.ChannelChat).List(context.Background())
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, todo.ChannelChat, todos[0].Channel)
	assert.Equal(t, todo.ChannelChat, todos[0].Origin)
}

func TestLedgerStore(t *testing.T) {
	ctx := context.Background()
	l := NewLedgerStore(filepath.Join(t.TempDir(), "processed_emails.json"))

	seen, err := l.Seen(ctx, "<a@b>")
	require.NoError(t, err)
	assert.False(t, seen)

	claimed, err := l.Claim(ctx, "<a@b>")
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = l.Claim(ctx, "<a@b>")
	require.NoError(t, err)
	assert.False(t, claimed)

	require.NoError(t, l.Record(ctx, "<a@b>"))
	require.NoError(t, l.Record(ctx, "<c@d>"))

	ids, err := l.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"<a@b>", "<c@d>"}, ids)

	seen, err = l.Seen(ctx, "<c@d>")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestSyncLogStore(t *testing.T) {
	ctx := context.Background()
	s := NewSyncLogStore(filepath.Join(t.TempDir(), "sync_log.json"))
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	l, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, l.LastSync)
	assert.Empty(t, l.History)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, synclog.Entry{
			ID:        fmt.Sprintf("run-%d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Counts:    map[string]synclog.Counts{"chat": {Pending: i}},
		}, 3))
	}

	l, err = s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, l.History, 3)
	assert.Equal(t, "run-2", l.History[0].ID, "oldest entries evicted")
	assert.Equal(t, "run-4", l.History[2].ID)
	require.NotNil(t, l.LastSync)
	assert.True(t, base.Add(4*time.Minute).Equal(*l.LastSync))
}

func TestBackend(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend(dir)
	defer func() { _ = b.Close() }()

	chat := b.Store(todo.ChannelChat)
	assert.Same(t, chat, b.Store(todo.ChannelChat), "stores are cached per channel")
	assert.Equal(t, filepath.Join(dir, "chat_todos.json"), chat.(*TodoStore).Path())

	sheet, ok := b.Store(todo.ChannelSheet).(*sheetfile.Store)
	require.True(t, ok, "sheet partition is CSV backed")
	assert.Equal(t, filepath.Join(dir, "sheet_todos.csv"), sheet.Path())

	assert.Same(t, b.Ledger("emails"), b.Ledger("emails"))
	assert.NotSame(t, b.Ledger("emails"), b.Ledger("effects"))

	require.NoError(t, b.Ledger("emails").Record(context.Background(), "x"))
	_, err := os.Stat(filepath.Join(dir, "processed_emails.json"))
	assert.NoError(t, err)
}
