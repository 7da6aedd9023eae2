package todosync

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hebbarp/todo-management/internal/core/config"
	"github.com/hebbarp/todo-management/internal/core/todo"
)

func TestDigest_Send(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	seed(t, app, todo.ChannelChat, "Call investor", "Send invoice")
	_, err := app.adapter(t, todo.ChannelChat).Complete(ctx, 1)
	require.NoError(t, err)

	ok := app.Digest.Send(ctx, "boss@example.com")
	require.True(t, ok)

	sent := app.sender.messages()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, todo.ChannelEmail, msg.Channel)
	assert.Equal(t, "boss@example.com", msg.Recipient)
	assert.True(t, strings.HasPrefix(msg.Subject, "Daily Todo Digest - March 14, 2026"), msg.Subject)
	assert.Contains(t, msg.Body, "Total todos: 2 (1 pending, 1 completed)")
	assert.Contains(t, msg.Body, "- Chat: 1 pending, 1 completed")
	assert.Contains(t, msg.Body, "#2: Send invoice")
	assert.Contains(t, msg.Body, "Last sync: Never")
}

func TestDigest_SendFailureReturnsFalse(t *testing.T) {
	app := newTestApp(t)
	app.sender.err = errBoom

	assert.False(t, app.Digest.Send(context.Background(), "boss@example.com"))
}

func TestDigest_CustomTemplate(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) {
		c.Digest.Template = "{{ .Total }} todos, last sync {{ .LastSync }}"
	})
	seed(t, app, todo.ChannelSheet, "Call investor")

	body, err := app.Digest.Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1 todos, last sync Never", body)
}

func TestDigest_BadTemplateReturnsFalse(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) { c.Digest.Template = "{{ .Missing }}" })

	assert.False(t, app.Digest.Send(context.Background(), "boss@example.com"))
	assert.Empty(t, app.sender.messages())
}

func TestDigest_UnavailableChannel(t *testing.T) {
	app := newTestApp(t)
	app.corrupt(t, todo.ChannelEmail)

	body, err := app.Digest.Render(context.Background())
	require.NoError(t, err)
	assert.Contains(t, body, "- Email: unavailable")
}
