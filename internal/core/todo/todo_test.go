package todo

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannel(t *testing.T) {
	tests := []struct {
		in      string
		want    Channel
		wantErr bool
	}{
		{in: "chat", want: ChannelChat},
		{in: " Email ", want: ChannelEmail},
		{in: "SHEET", want: ChannelSheet},
		{in: "fax", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseChannel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidChannel))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChannel_Tag(t *testing.T) {
	assert.Equal(t, "[Chat]", ChannelChat.Tag())
	assert.Equal(t, "[Email]", ChannelEmail.Tag())
	assert.Equal(t, "", Channel("").Tag())
	assert.Equal(t, "Sheet", ChannelSheet.Title())
}

func TestTodo_Complete(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	item := Todo{ID: 1, Channel: ChannelChat, Description: "Call investor", Status: StatusPending}

	require.True(t, item.Complete(now))
	assert.Equal(t, StatusCompleted, item.Status)
	require.NotNil(t, item.CompletedAt)
	assert.Equal(t, now, *item.CompletedAt)

	// second transition is rejected and does not move completed_at
	assert.False(t, item.Complete(now.Add(time.Hour)))
	assert.Equal(t, now, *item.CompletedAt)
}

func TestTodo_Validate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		item    Todo
		wantErr string
	}{
		{
			name: "valid pending",
			item: Todo{ID: 1, Channel: ChannelChat, Description: "x", Status: StatusPending},
		},
		{
			name: "valid completed",
			item: Todo{ID: 1, Channel: ChannelChat, Description: "x", Status: StatusCompleted, CompletedAt: &now},
		},
		{
			name:    "completed without timestamp",
			item:    Todo{ID: 1, Channel: ChannelChat, Description: "x", Status: StatusCompleted},
			wantErr: "completed_at",
		},
		{
			name:    "pending with timestamp",
			item:    Todo{ID: 1, Channel: ChannelChat, Description: "x", Status: StatusPending, CompletedAt: &now},
			wantErr: "completed_at",
		},
		{
			name:    "zero id",
			item:    Todo{Channel: ChannelChat, Description: "x", Status: StatusPending},
			wantErr: "positive",
		},
		{
			name:    "empty description",
			item:    Todo{ID: 2, Channel: ChannelEmail, Description: "  ", Status: StatusPending},
			wantErr: "description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNextID(t *testing.T) {
	assert.Equal(t, 1, NextID(nil))
	assert.Equal(t, 4, NextID([]Todo{{ID: 1}, {ID: 3}, {ID: 2}}))
}

func TestFilterAndLast(t *testing.T) {
	items := []Todo{
		{ID: 1, Status: StatusPending, Sender: "a"},
		{ID: 2, Status: StatusCompleted, Sender: "a"},
		{ID: 3, Status: StatusPending, Sender: "b"},
		{ID: 4, Status: StatusPending, Sender: "a"},
	}

	pendingA := Filter(items, ListFilter{Status: StatusPending, Sender: "a"})
	require.Len(t, pendingA, 2)
	assert.Equal(t, 1, pendingA[0].ID)
	assert.Equal(t, 4, pendingA[1].ID)

	assert.Len(t, Filter(items, ListFilter{}), 4)

	last := Last(items, 2)
	require.Len(t, last, 2)
	assert.Equal(t, 3, last[0].ID)
	assert.Equal(t, 4, last[1].ID)
	assert.Empty(t, Last(items, 0))
	assert.Len(t, Last(items, 10), 4)
}

func TestStoreError(t *testing.T) {
	base := errors.New("disk full")
	err := &StoreError{Op: "append", Channel: ChannelSheet, Err: base}
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "store append sheet: disk full", err.Error())
}

func TestTodo_IsReplica(t *testing.T) {
	assert.False(t, (&Todo{Channel: ChannelChat, Origin: ChannelChat}).IsReplica())
	assert.False(t, (&Todo{Channel: ChannelChat}).IsReplica())
	assert.True(t, (&Todo{Channel: ChannelSheet, Origin: ChannelChat}).IsReplica())
}
