// Package outbound implements the send capability: an append-only outbox log
// and an SMTP relay, routed per channel.
package outbound

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hebbarp/todo-management/internal/core/logging"
	"github.com/hebbarp/todo-management/internal/core/messaging"
	"github.com/hebbarp/todo-management/pkg/iojson"
)

// LogRecord is one line of the outbox log.
type LogRecord struct {
	SentAt time.Time `json:"sent_at"`
	messaging.Outbound
}

// LogSender appends every outbound message to a JSON-lines file. It stands in
// for transports that are not configured.
type LogSender struct {
	path string
	now  func() time.Time
	log  zerolog.Logger
	mu   sync.Mutex
}

var _ messaging.Sender = (*LogSender)(nil)

// NewLogSender creates a sender appending to path.
func NewLogSender(path string) *LogSender {
	return &LogSender{
		path: path,
		now:  time.Now,
		log:  logging.Component("outbox"),
	}
}

// Send appends msg to the outbox.
func (s *LogSender) Send(ctx context.Context, msg messaging.Outbound) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create outbox dir: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open outbox: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := iojson.WriteLine(f, LogRecord{SentAt: s.now().UTC(), Outbound: msg}); err != nil {
		return fmt.Errorf("write outbox: %w", err)
	}

	s.log.Debug().
		Str("channel", string(msg.Channel)).
		Str("recipient", msg.Recipient).
		Msg("message written to outbox")
	return nil
}
