package inbound

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hebbarp/todo-management/internal/core/todo"
)

func TestDecodeEnvelope(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	t.Run("chat", func(t *testing.T) {
		msg, err := DecodeEnvelope([]byte(`{"channel":"chat","from":"whatsapp:+919812345678","text":"Add todo: Call investor"}`), now)
		require.NoError(t, err)

		assert.Equal(t, todo.ChannelChat, msg.Channel)
		assert.Equal(t, "whatsapp:+919812345678", msg.Sender)
		assert.Equal(t, "Add todo: Call investor", msg.Text)
		assert.Empty(t, msg.ID)
		assert.Equal(t, now, msg.ReceivedAt)
	})

	t.Run("email with received_at", func(t *testing.T) {
		msg, err := DecodeEnvelope([]byte(`{
			"channel": "email",
			"from": "ada@example.com",
			"id": "<m1@example.com>",
			"subject": "Slides",
			"text": "todo: prepare slides",
			"received_at": "2026-03-10T08:00:00Z"
		}`), now)
		require.NoError(t, err)

		assert.Equal(t, "<m1@example.com>", msg.ID)
		assert.Equal(t, "Slides", msg.Subject)
		assert.Equal(t, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), msg.ReceivedAt.UTC())
	})
}

func TestDecodeEnvelope_Invalid(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `{channel`},
		{name: "unknown channel", data: `{"channel":"fax","from":"a","text":"x"}`},
		{name: "missing from", data: `{"channel":"chat","text":"x"}`},
		{name: "empty from", data: `{"channel":"chat","from":"","text":"x"}`},
		{name: "email without id", data: `{"channel":"email","from":"a@b.c","text":"x"}`},
		{name: "unknown field", data: `{"channel":"chat","from":"a","text":"x","extra":1}`},
		{name: "bad timestamp", data: `{"channel":"chat","from":"a","text":"x","received_at":"yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEnvelope([]byte(tt.data), now)
			assert.Error(t, err)
		})
	}
}

func TestDecode_ByExtension(t *testing.T) {
	now := time.Now()

	msg, err := Decode("inbox/a.json", []byte(`{"channel":"sheet","from":"ops","text":"todo: restock"}`), now)
	require.NoError(t, err)
	assert.Equal(t, todo.ChannelSheet, msg.Channel)

	msg, err = Decode("inbox/B.EML", []byte("From: a@b.c\r\nMessage-ID: <x@b.c>\r\n\r\nlist\r\n"), now)
	require.NoError(t, err)
	assert.Equal(t, todo.ChannelEmail, msg.Channel)
	assert.Equal(t, "list", msg.Text)
}
