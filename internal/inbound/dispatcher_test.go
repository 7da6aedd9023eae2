package inbound

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hebbarp/todo-management/internal/core/config"
	"github.com/hebbarp/todo-management/internal/core/messaging"
	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/internal/store/jsonfile"
	"github.com/hebbarp/todo-management/internal/todosync"
)

type recordingSender struct {
	mu   sync.Mutex
	err  error
	sent []messaging.Outbound
}

func (r *recordingSender) Send(_ context.Context, msg messaging.Outbound) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.err
}

func (r *recordingSender) messages() []messaging.Outbound {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]messaging.Outbound(nil), r.sent...)
}

func newDispatcher(t *testing.T) (*Dispatcher, *todosync.App, *recordingSender) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()

	sender := &recordingSender{}
	app, err := todosync.NewApp(&cfg, jsonfile.NewBackend(cfg.StoreDir()), nil, sender)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	return NewDispatcher(app, sender), app, sender
}

func listAll(t *testing.T, app *todosync.App, ch todo.Channel) []todo.Todo {
	t.Helper()
	a, err := app.Adapter(ch)
	require.NoError(t, err)
	todos, err := a.List(context.Background(), todo.ListFilter{})
	require.NoError(t, err)
	return todos
}

func TestDispatcher_ChatReply(t *testing.T) {
	d, app, sender := newDispatcher(t)
	ctx := context.Background()

	res, err := d.Dispatch(ctx, messaging.Inbound{
		Channel: todo.ChannelChat,
		Sender:  "whatsapp:+919812345678",
		Text:    "Add todo: Call investor",
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, res.Created)

	sent := sender.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, todo.ChannelChat, sent[0].Channel)
	assert.Equal(t, "whatsapp:+919812345678", sent[0].Recipient)
	assert.Equal(t, "Todo #1 created: Call investor", sent[0].Body)

	require.Len(t, listAll(t, app, todo.ChannelChat), 1)
}

func TestDispatcher_EmailDuplicateNotAnswered(t *testing.T) {
	d, app, sender := newDispatcher(t)
	ctx := context.Background()

	msg := messaging.Inbound{
		ID:      "<dup@example.com>",
		Channel: todo.ChannelEmail,
		Sender:  "ada@example.com",
		Subject: "Slides",
		Text:    "todo: prepare slides",
	}

	_, err := d.Dispatch(ctx, msg)
	require.NoError(t, err)
	res, err := d.Dispatch(ctx, msg)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)

	sent := sender.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Re: Slides", sent[0].Subject)
	assert.Len(t, listAll(t, app, todo.ChannelEmail), 1)
}

func TestDispatcher_ReplyFailureIsSwallowed(t *testing.T) {
	d, app, sender := newDispatcher(t)
	sender.err = errors.New("smtp down")

	res, err := d.Dispatch(context.Background(), messaging.Inbound{
		Channel: todo.ChannelChat,
		Sender:  "9812345678",
		Text:    "todo: water plants",
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, res.Created)
	assert.Len(t, listAll(t, app, todo.ChannelChat), 1)
}

func TestDispatcher_SheetNotAnswered(t *testing.T) {
	d, _, sender := newDispatcher(t)

	_, err := d.Dispatch(context.Background(), messaging.Inbound{
		Channel: todo.ChannelSheet,
		Sender:  "ops",
		Text:    "todo: restock paper",
	})
	require.NoError(t, err)
	assert.Empty(t, sender.messages())
}

func TestDispatcher_HandleFile(t *testing.T) {
	d, app, _ := newDispatcher(t)
	spool := t.TempDir()
	ctx := context.Background()

	good := filepath.Join(spool, "001.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"channel":"chat","from":"9812345678","text":"Add todo: Book venue"}`), 0o644))

	bad := filepath.Join(spool, "002.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"channel":"fax","from":"x","text":"y"}`), 0o644))

	mail := filepath.Join(spool, "003.eml")
	require.NoError(t, os.WriteFile(mail, []byte("From: ada@example.com\r\nMessage-ID: <f1@example.com>\r\nSubject: Venue\r\n\r\ntodo: sign venue contract\r\n"), 0o644))

	require.NoError(t, d.HandleFile(ctx, good))
	require.Error(t, d.HandleFile(ctx, bad))
	require.NoError(t, d.HandleFile(ctx, mail))

	assert.NoFileExists(t, good)
	assert.FileExists(t, filepath.Join(spool, ProcessedDir, "001.json"))
	assert.FileExists(t, filepath.Join(spool, FailedDir, "002.json"))
	assert.FileExists(t, filepath.Join(spool, ProcessedDir, "003.eml"))

	chat := listAll(t, app, todo.ChannelChat)
	require.Len(t, chat, 1)
	assert.Equal(t, "Book venue", chat[0].Description)

	email := listAll(t, app, todo.ChannelEmail)
	require.Len(t, email, 1)
	assert.Equal(t, "sign venue contract", email[0].Description)
}
