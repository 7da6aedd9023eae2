// Package messaging defines the messages exchanged with channel collaborators
// and the outbound capabilities the core depends on.
package messaging

import (
	"errors"
	"strings"
	"time"

	"github.com/hebbarp/todo-management/internal/core/todo"
)

// Validation errors for Inbound.
var (
	ErrEmptyText        = errors.New("text is required")
	ErrMissingMessageID = errors.New("message id is required for email")
	ErrTextTooLarge     = errors.New("text exceeds maximum size")
)

// MaxTextSize is the maximum allowed inbound text size in bytes (1MB).
const MaxTextSize = 1 << 20

// Inbound is one message handed to the core by an inbound source.
type Inbound struct {
	ID         string       `json:"id,omitempty"`
	Channel    todo.Channel `json:"channel"`
	Sender     string       `json:"sender"`
	Subject    string       `json:"subject,omitempty"`
	Text       string       `json:"text"`
	ReceivedAt time.Time    `json:"received_at"`
}

// Validate checks that the message meets all constraints. Email messages must
// carry an ID since it drives deduplication; chat and sheet IDs are optional.
func (m *Inbound) Validate() error {
	if !m.Channel.IsValid() {
		return todo.ErrInvalidChannel
	}
	if strings.TrimSpace(m.Text) == "" && strings.TrimSpace(m.Subject) == "" {
		return ErrEmptyText
	}
	if len(m.Text) > MaxTextSize {
		return ErrTextTooLarge
	}
	if m.Channel == todo.ChannelEmail && strings.TrimSpace(m.ID) == "" {
		return ErrMissingMessageID
	}
	return nil
}

// Outbound is a message handed to the send capability.
type Outbound struct {
	Channel   todo.Channel `json:"channel"`
	Recipient string       `json:"recipient"`
	Subject   string       `json:"subject,omitempty"`
	Body      string       `json:"body"`
}
