package stores

import (
	"bytes"
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
	"github.com/hebbarp/todo-management/internal/data/db"
)

// postgresDSNEnv gates the Postgres variants of these tests.
const postgresDSNEnv = "TODOSYNC_TEST_POSTGRES_DSN"

type backendFactory struct {
	name string
	open func(t *testing.T) *Backend
}

func factories() []backendFactory {
	fs := []backendFactory{{
		name: "sqlite",
		open: func(t *testing.T) *Backend {
			t.Helper()
			b, err := OpenSQLite(t.TempDir(), db.DefaultOpenOptions())
			require.NoError(t, err)
			t.Cleanup(func() { _ = b.Close() })
			return b
		},
	}}

	if dsn := os.Getenv(postgresDSNEnv); dsn != "" {
		fs = append(fs, backendFactory{
			name: "postgres",
			open: func(t *testing.T) *Backend {
				t.Helper()
				b, err := OpenPostgres(dsn, db.DefaultOpenOptions())
				require.NoError(t, err)
				t.Cleanup(func() { _ = b.Close() })
				for _, table := range []string{"todos", "processed_messages", "sync_log"} {
					_, err := b.DB().ExecContext(context.Background(), "DELETE FROM "+table)
					require.NoError(t, err)
				}
				return b
			},
		})
	}

	return fs
}

func TestTodoStore(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			b := f.open(t)
			chat := b.Store(todo.ChannelChat)
			email := b.Store(todo.ChannelEmail)
			now := time.Date(2026, 2, 3, 4, 5, 6, 7, time.UTC)

			todos, err := chat.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, todos)

			for i := 1; i <= 3; i++ {
				require.NoError(t, chat.Append(ctx, todo.Todo{
					ID:          i,
					Channel:     todo.ChannelChat,
					Origin:      todo.ChannelChat,
					Description: fmt.Sprintf("chat %d", i),
					Status:      todo.StatusPending,
					Sender:      "919876543210",
					CreatedAt:   now,
				}))
			}
			require.NoError(t, email.Append(ctx, todo.Todo{
				ID:          1,
				Channel:     todo.ChannelEmail,
				Origin:      todo.ChannelChat,
				Description: "[Chat] chat 1",
				Status:      todo.StatusPending,
				Notes:       "From: 919876543210",
				CreatedAt:   now,
			}))

			todos, err = chat.List(ctx)
			require.NoError(t, err)
			require.Len(t, todos, 3, "partitions are isolated per channel")
			assert.Equal(t, "chat 1", todos[0].Description)
			assert.Equal(t, todo.ChannelChat, todos[0].Channel)
			assert.True(t, now.Equal(todos[0].CreatedAt))
			assert.Nil(t, todos[0].CompletedAt)

			require.NoError(t, email.Append(ctx, todo.Todo{
				ID:          2,
				Channel:     todo.ChannelEmail,
				Origin:      todo.ChannelEmail,
				Description: "Renew the domain",
				Status:      todo.StatusPending,
				Subject:     "Request",
				MessageID:   "<m1@example.com>",
				CreatedAt:   now,
			}))

			emailTodos, err := email.List(ctx)
			require.NoError(t, err)
			require.Len(t, emailTodos, 2)
			assert.True(t, emailTodos[0].IsReplica())
			assert.Equal(t, "From: 919876543210", emailTodos[0].Notes)
			assert.Empty(t, emailTodos[0].MessageID)
			assert.Equal(t, "<m1@example.com>", emailTodos[1].MessageID)
			assert.Equal(t, "Request", emailTodos[1].Subject)

			item := todos[1]
			require.True(t, item.Complete(now.Add(time.Hour)))
			require.NoError(t, chat.Update(ctx, item))

			todos, err = chat.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, todo.StatusCompleted, todos[1].Status)
			require.NotNil(t, todos[1].CompletedAt)
			assert.True(t, now.Add(time.Hour).Equal(*todos[1].CompletedAt))

			assert.ErrorIs(t, chat.Update(ctx, todo.Todo{ID: 99, Status: todo.StatusPending}), todo.ErrNotFound)

			err = chat.Append(ctx, todo.Todo{ID: 1, Description: "dup", Status: todo.StatusPending, CreatedAt: now})
			var storeErr *todo.StoreError
			require.ErrorAs(t, err, &storeErr)
			assert.Contains(t, err.Error(), "duplicate id 1")
		})
	}
}

func TestLedgerStore(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			b := f.open(t)
			emails := b.Ledger("emails")
			effects := b.Ledger("effects")

			claimed, err := emails.Claim(ctx, "<a@b>")
			require.NoError(t, err)
			assert.True(t, claimed)

			claimed, err = emails.Claim(ctx, "<a@b>")
			require.NoError(t, err)
			assert.False(t, claimed, "second claim loses")

			seen, err := effects.Seen(ctx, "<a@b>")
			require.NoError(t, err)
			assert.False(t, seen, "scopes are independent")

			require.NoError(t, emails.Record(ctx, "<a@b>"))
			require.NoError(t, emails.Record(ctx, "<c@d>"))

			ids, err := emails.List(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"<a@b>", "<c@d>"}, ids)
		})
	}
}

func TestSyncLogStore(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			s := f.open(t).SyncLog()
			base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

			l, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Nil(t, l.LastSync)

			for i := 0; i < 4; i++ {
				require.NoError(t, s.Append(ctx, synclog.Entry{
					ID:        fmt.Sprintf("run-%d", i),
					Timestamp: base.Add(time.Duration(i) * time.Minute),
					Counts:    map[string]synclog.Counts{"chat": {Pending: i, Completed: 1}},
					Errors:    []string{},
				}, 2))
			}

			l, err = s.Load(ctx)
			require.NoError(t, err)
			require.Len(t, l.History, 2)
			assert.Equal(t, "run-2", l.History[0].ID)
			assert.Equal(t, "run-3", l.History[1].ID)
			assert.Equal(t, synclog.Counts{Pending: 3, Completed: 1}, l.History[1].Counts["chat"])
			require.NotNil(t, l.LastSync)
			assert.True(t, base.Add(3*time.Minute).Equal(*l.LastSync))
		})
	}
}

func TestOpenSQLite_RecoversFromCorruption(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, db.FileName), bytes.Repeat([]byte("not a sqlite database "), 512), 0o644))

	b, err := OpenSQLite(dir, db.DefaultOpenOptions())
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	todos, err := b.Store(todo.ChannelChat).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, todos)

	matches, err := filepath.Glob(filepath.Join(dir, db.FileName+".corrupt.*"))
	require.NoError(t, err)
	assert.Len(t, matches, 1, "corrupted file is kept aside")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrap: %w", fmt.Errorf("UNIQUE constraint failed: todos.channel, todos.id"))))
	assert.False(t, IsUniqueViolation(fmt.Errorf("CHECK constraint failed")))
}
