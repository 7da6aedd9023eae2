// Package todo defines the todo domain model shared by every channel partition.
package todo

import (
	"fmt"
	"strings"
	"time"
)

// Channel identifies one communication surface with its own todo partition.
type Channel string

const (
	ChannelChat  Channel = "chat"
	ChannelEmail Channel = "email"
	ChannelSheet Channel = "sheet"
)

// Channels lists every known channel in the order they are synchronized.
var Channels = []Channel{ChannelChat, ChannelEmail, ChannelSheet}

// ParseChannel converts a user-supplied name into a Channel.
func ParseChannel(s string) (Channel, error) {
	ch := Channel(strings.ToLower(strings.TrimSpace(s)))
	if !ch.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidChannel, s)
	}
	return ch, nil
}

// IsValid reports whether c is a known channel.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelChat, ChannelEmail, ChannelSheet:
		return true
	default:
		return false
	}
}

// Title returns the display name, e.g. "Email".
func (c Channel) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// Tag is the provenance prefix used on fan-out copies, e.g. "[Email]".
func (c Channel) Tag() string {
	if c == "" {
		return ""
	}
	return "[" + c.Title() + "]"
}

// Status represents the lifecycle state of a todo.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Todo is a single action item owned by exactly one channel partition.
// ID is only unique within Channel.
type Todo struct {
	ID          int        `json:"id"`
	Channel     Channel    `json:"channel"`
	Origin      Channel    `json:"origin"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Sender      string     `json:"sender,omitempty"`
	Subject     string     `json:"subject,omitempty"`
	MessageID   string     `json:"message_id,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     string     `json:"due_date,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsReplica reports whether the todo was fanned out from another channel.
func (t *Todo) IsReplica() bool {
	return t.Origin != "" && t.Origin != t.Channel
}

// Complete transitions a pending todo to completed and stamps CompletedAt.
// Returns false, leaving the todo untouched, when it is already completed.
func (t *Todo) Complete(now time.Time) bool {
	if t.Status == StatusCompleted {
		return false
	}
	t.Status = StatusCompleted
	t.CompletedAt = &now
	return true
}

// Validate checks the completed_at/status invariant and required fields.
func (t *Todo) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("todo id must be positive, got %d", t.ID)
	}
	if !t.Channel.IsValid() {
		return fmt.Errorf("todo %d: %w: %q", t.ID, ErrInvalidChannel, t.Channel)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("todo %d: invalid status %q", t.ID, t.Status)
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("todo %d: description is required", t.ID)
	}
	if (t.Status == StatusCompleted) != (t.CompletedAt != nil) {
		return fmt.Errorf("todo %d: completed_at must be set if and only if status is completed", t.ID)
	}
	return nil
}

// NextID returns max(existing ids) + 1, or 1 for an empty partition.
func NextID(todos []Todo) int {
	next := 1
	for _, t := range todos {
		if t.ID >= next {
			next = t.ID + 1
		}
	}
	return next
}

// ListFilter controls which todos are returned by Filter.
type ListFilter struct {
	Status Status // empty means all statuses
	Sender string // empty means all senders
}

// Filter returns the todos matching f, preserving insertion order.
func Filter(todos []Todo, f ListFilter) []Todo {
	out := make([]Todo, 0, len(todos))
	for _, t := range todos {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Sender != "" && t.Sender != f.Sender {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Last returns at most the n most recent todos (insertion order, most recent last).
func Last(todos []Todo, n int) []Todo {
	if n <= 0 {
		return []Todo{}
	}
	if len(todos) <= n {
		return todos
	}
	return todos[len(todos)-n:]
}
